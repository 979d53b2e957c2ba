package protocols

type Translatable struct {
	Translations map[string]string `json:"translations"`
}

func Text(lang, text string, more ...string) Translatable {
	t := Translatable{
		Translations: map[string]string{
			lang: text,
		},
	}
	for i := 0; i+1 < len(more); i += 2 {
		t.Translations[more[i]] = more[i+1]
	}
	return t
}

func (t Translatable) Lookup(locale string) string {
	if text, ok := t.Translations[locale]; ok {
		return text
	}
	if text, ok := t.Translations["en"]; ok {
		return text
	}
	for _, text := range t.Translations {
		return text
	}
	return ""
}
