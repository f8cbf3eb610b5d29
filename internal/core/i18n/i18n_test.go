package i18n

import (
	"reflect"
	"testing"
)

// emptyFields reports string fields left blank anywhere in v.
func emptyFields(prefix string, v reflect.Value) []string {
	var out []string
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		name := prefix + v.Type().Field(i).Name
		switch f.Kind() {
		case reflect.Struct:
			out = append(out, emptyFields(name+".", f)...)
		case reflect.String:
			if f.String() == "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func TestLocalesComplete(t *testing.T) {
	for _, lang := range SupportedLanguages {
		if _, err := loadTranslations(lang.Code); err != nil {
			t.Fatalf("load %s: %v", lang.Code, err)
		}
		if missing := emptyFields("", reflect.ValueOf(*T(lang.Code))); len(missing) > 0 {
			t.Errorf("%s is missing %v", lang.Code, missing)
		}
	}
}

func TestFallback(t *testing.T) {
	if got := T("fr").UI.Hotwords; got != T("zh").UI.Hotwords {
		t.Errorf("unknown language should fall back to zh, got %q", got)
	}
	if T("en").UI.Clip != "Clip" {
		t.Errorf("en clip label = %q", T("en").UI.Clip)
	}
}
