package composer

// Clone returns a deep copy of the template so callers can never reach the
// registry's backing data.
func (t Template) Clone() Template {
	out := t
	out.Sections = cloneSections(t.Sections)
	out.Metadata.Keywords = cloneStrings(t.Metadata.Keywords)
	return out
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	out.Props = s.Props.Clone()
	out.Variants = cloneStrings(s.Variants)
	return out
}

// Clone deep-copies nested maps and slices; scalar values are shared.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for key, value := range p {
		out[key] = cloneValue(value)
	}
	return out
}

// Merge shallow-merges overrides into a copy of p. Keys in overrides win and
// untouched keys are preserved.
func (p Props) Merge(overrides Props) Props {
	out := p.Clone()
	if out == nil {
		out = make(Props, len(overrides))
	}
	for key, value := range overrides {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for idx, section := range sections {
		out[idx] = section.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case Props:
		return v.Clone()
	case map[string]any:
		return map[string]any(Props(v).Clone())
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = cloneValue(item)
		}
		return out
	case []string:
		return cloneStrings(v)
	default:
		return v
	}
}
