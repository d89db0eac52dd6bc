package publish

// Setting is one configurable plugin parameter.
type Setting struct {
	Type        string
	Default     any
	Value       any
	Description string
}

// Settings maps setting names to their definitions.
type Settings map[string]*Setting

// Resolve returns the effective value: the explicit value when set,
// otherwise the default.
func (s Settings) Resolve(name string) any {
	setting, ok := s[name]
	if !ok {
		return nil
	}
	if setting.Value != nil {
		return setting.Value
	}
	return setting.Default
}

// String returns a string setting, empty when absent or mistyped.
func (s Settings) String(name string) string {
	value, _ := s.Resolve(name).(string)
	return value
}

// Bool returns a bool setting, false when absent or mistyped.
func (s Settings) Bool(name string) bool {
	value, _ := s.Resolve(name).(bool)
	return value
}

// Set assigns an explicit value, creating the setting if needed.
func (s Settings) Set(name string, value any) {
	if setting, ok := s[name]; ok {
		setting.Value = value
		return
	}
	s[name] = &Setting{Value: value}
}
