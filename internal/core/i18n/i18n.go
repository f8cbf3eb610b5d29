package i18n

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localesFS embed.FS

// Translations holds all translation strings organized by section
type Translations struct {
	UI     UITranslations     `yaml:"ui" json:"ui"`
	CLI    CLITranslations    `yaml:"cli" json:"cli"`
	Errors ErrorTranslations  `yaml:"errors" json:"errors"`
	Server ServerTranslations `yaml:"server" json:"server"`
	Wizard WizardTranslations `yaml:"wizard" json:"-"`
}

// UITranslations holds the web UI labels
type UITranslations struct {
	Title       string `yaml:"title" json:"title"`
	Subtitle    string `yaml:"subtitle" json:"subtitle"`
	Language    string `yaml:"language" json:"language"`
	UploadMedia string `yaml:"upload_media" json:"upload_media"`
	Uploading   string `yaml:"uploading" json:"uploading"`
	Hotwords    string `yaml:"hotwords" json:"hotwords"`
	HotwordsTip string `yaml:"hotwords_tip" json:"hotwords_tip"`
	OutputDir   string `yaml:"output_dir" json:"output_dir"`
	ASR         string `yaml:"asr" json:"asr"`
	ASRSD       string `yaml:"asr_sd" json:"asr_sd"`
	Recognizing string `yaml:"recognizing" json:"recognizing"`
	Text        string `yaml:"text" json:"text"`
	SRT         string `yaml:"srt" json:"srt"`
	// Clip
	ClipTab        string `yaml:"clip_tab" json:"clip_tab"`
	TextToClip     string `yaml:"text_to_clip" json:"text_to_clip"`
	SpeakersToClip string `yaml:"speakers_to_clip" json:"speakers_to_clip"`
	StartOffset    string `yaml:"start_offset" json:"start_offset"`
	EndOffset      string `yaml:"end_offset" json:"end_offset"`
	Clip           string `yaml:"clip" json:"clip"`
	ClipSubtitles  string `yaml:"clip_subtitles" json:"clip_subtitles"`
	FontSize       string `yaml:"font_size" json:"font_size"`
	FontColor      string `yaml:"font_color" json:"font_color"`
	Clipping       string `yaml:"clipping" json:"clipping"`
	// LLM
	LLMTab          string `yaml:"llm_tab" json:"llm_tab"`
	SystemPrompt    string `yaml:"system_prompt" json:"system_prompt"`
	UserPrompt      string `yaml:"user_prompt" json:"user_prompt"`
	Model           string `yaml:"model" json:"model"`
	APIKey          string `yaml:"api_key" json:"api_key"`
	APIKeyTip       string `yaml:"api_key_tip" json:"api_key_tip"`
	LLMInference    string `yaml:"llm_inference" json:"llm_inference"`
	LLMResult       string `yaml:"llm_result" json:"llm_result"`
	AIClip          string `yaml:"ai_clip" json:"ai_clip"`
	AIClipSubtitles string `yaml:"ai_clip_subtitles" json:"ai_clip_subtitles"`
	Inferring       string `yaml:"inferring" json:"inferring"`
	// Output
	ClippedVideo string `yaml:"clipped_video" json:"clipped_video"`
	ClippedAudio string `yaml:"clipped_audio" json:"clipped_audio"`
	Segments     string `yaml:"segments" json:"segments"`
	Message      string `yaml:"message" json:"message"`
	ClipSRT      string `yaml:"clip_srt" json:"clip_srt"`
	Reset        string `yaml:"reset" json:"reset"`
	APIKeyPrompt string `yaml:"api_key_prompt" json:"api_key_prompt"`
}

// CLITranslations holds CLI progress and result messages
type CLITranslations struct {
	Recognizing   string `yaml:"recognizing"`
	Clipping      string `yaml:"clipping"`
	Inferring     string `yaml:"inferring"`
	Done          string `yaml:"done"`
	Failed        string `yaml:"failed"`
	SavedTo       string `yaml:"saved_to"`
	StateSaved    string `yaml:"state_saved"`
	Exported      string `yaml:"exported"`
	ConfigCreated string `yaml:"config_created"`
	KeySaved      string `yaml:"key_saved"`
	EnterKey      string `yaml:"enter_key"`
	EnterPIN      string `yaml:"enter_pin"`
	ConfirmPIN    string `yaml:"confirm_pin"`
	PINMismatch   string `yaml:"pin_mismatch"`
	ServerStarted string `yaml:"server_started"`
}

// ErrorTranslations holds user-facing error messages
type ErrorTranslations struct {
	NoState       string `yaml:"no_state" json:"no_state"`
	NoMedia       string `yaml:"no_media" json:"no_media"`
	SessionGone   string `yaml:"session_gone" json:"session_gone"`
	ConfigMissing string `yaml:"config_missing" json:"config_missing"`
}

// ServerTranslations holds translations for server messages
type ServerTranslations struct {
	NoConfigWarning string `yaml:"no_config_warning" json:"no_config_warning"`
	RunInitHint     string `yaml:"run_init_hint" json:"run_init_hint"`
}

// WizardTranslations holds the `vclip config init` wizard strings
type WizardTranslations struct {
	StepOf        string `yaml:"step_of"`
	Language      string `yaml:"language"`
	LanguageDesc  string `yaml:"language_desc"`
	OutputDir     string `yaml:"output_dir"`
	OutputDirDesc string `yaml:"output_dir_desc"`
	ASREngine     string `yaml:"asr_engine"`
	ASREngineDesc string `yaml:"asr_engine_desc"`
	Model         string `yaml:"model"`
	ModelDesc     string `yaml:"model_desc"`
	Confirm       string `yaml:"confirm"`
	ConfirmDesc   string `yaml:"confirm_desc"`
	Recommended   string `yaml:"recommended"`
	YesSave       string `yaml:"yes_save"`
	NoCancel      string `yaml:"no_cancel"`
	Back          string `yaml:"back"`
	Next          string `yaml:"next"`
	Select        string `yaml:"select"`
	Quit          string `yaml:"quit"`
}

var (
	translationsCache = make(map[string]*Translations)
	cacheMutex        sync.RWMutex
	defaultLang       = "zh"
)

// SupportedLanguages returns all available language codes
var SupportedLanguages = []struct {
	Code string
	Name string
}{
	{"zh", "中文"},
	{"en", "English"},
}

// GetTranslations returns translations for the specified language
func GetTranslations(lang string) *Translations {
	cacheMutex.RLock()
	if t, ok := translationsCache[lang]; ok {
		cacheMutex.RUnlock()
		return t
	}
	cacheMutex.RUnlock()

	t, err := loadTranslations(lang)
	if err != nil {
		if lang != defaultLang {
			return GetTranslations(defaultLang)
		}
		return &Translations{}
	}

	cacheMutex.Lock()
	translationsCache[lang] = t
	cacheMutex.Unlock()

	return t
}

func loadTranslations(lang string) (*Translations, error) {
	filename := fmt.Sprintf("locales/%s.yml", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var t Translations
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}

	return &t, nil
}

// T is a convenience function for getting translations
func T(lang string) *Translations {
	return GetTranslations(lang)
}
