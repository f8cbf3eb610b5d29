package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/guiyumin/vclip/internal/core/llm"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/core/timestamp"
	"github.com/guiyumin/vclip/internal/core/version"
	"github.com/guiyumin/vclip/internal/core/webdav"
)

type recognizeRequest struct {
	SessionID string `json:"session_id"`
	MediaPath string `json:"media_path"`
	Hotwords  string `json:"hotwords"`
	Language  string `json:"language"`
	OutputDir string `json:"output_dir"`
	Diarize   bool   `json:"diarize"`
}

// clipFields are shared by /api/clip and /api/llm/clip. Nil offsets take
// the configured defaults.
type clipFields struct {
	StartOffset *int   `json:"start_offset" binding:"omitempty,min=-500,max=1000"`
	EndOffset   *int   `json:"end_offset" binding:"omitempty,min=-500,max=1000"`
	OutputDir   string `json:"output_dir"`
	Subtitles   bool   `json:"subtitles"`
	FontSize    int    `json:"font_size" binding:"omitempty,min=10,max=100"`
	FontColor   string `json:"font_color" binding:"omitempty,oneof=black white green red"`

	// Export uploads the clip to a WebDAV remote, "name:/dir".
	Export string `json:"export"`
}

type clipRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Text      string `json:"text"`
	Speakers  string `json:"speakers"`
	clipFields
}

type llmInferRequest struct {
	SessionID string `json:"session_id"`
	System    string `json:"system"`
	User      string `json:"user"`
	SRT       string `json:"srt"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
}

type llmClipRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	LLMResult string `json:"llm_result"`
	clipFields
}

type sessionView struct {
	SessionID  string   `json:"session_id"`
	MediaPath  string   `json:"media_path,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Text       string   `json:"text,omitempty"`
	SRT        string   `json:"srt,omitempty"`
	Speakers   []string `json:"speakers,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
	LLMResult  string   `json:"llm_result,omitempty"`
}

type clipView struct {
	SessionID   string              `json:"session_id"`
	Result      *clipper.ClipResult `json:"result"`
	OutputURL   string              `json:"output_url,omitempty"`
	SegmentURLs []string            `json:"segment_urls,omitempty"`
	Exported    []string            `json:"exported,omitempty"`
}

func (s *Server) view(sess *Session) sessionView {
	v := sessionView{SessionID: sess.ID, MediaPath: sess.MediaPath, LLMResult: sess.LLMResult}
	if st := sess.State(); st != nil {
		v.Kind = string(st.Kind)
		v.Text = st.Text
		v.SRT = st.SRT
		v.Speakers = st.Speakers()
		v.DurationMS = st.Duration.Milliseconds()
	}
	return v
}

// lock fetches and locks a session. On failure it writes the response and
// returns nil.
func (s *Server) lock(c *gin.Context, id string) *Session {
	sess := s.sessions.Acquire(id)
	if sess == nil {
		fail(c, http.StatusNotFound, i18n.T(s.cfg.Language).Errors.SessionGone)
		return nil
	}
	return sess
}

func (s *Server) handleHealth(c *gin.Context) {
	ok(c, gin.H{
		"status":   "ok",
		"version":  version.Version,
		"sessions": s.sessions.Len(),
	}, "everything is good")
}

func (s *Server) handleI18n(c *gin.Context) {
	lang := c.DefaultQuery("lang", s.cfg.Language)
	ok(c, gin.H{
		"language":     lang,
		"translations": i18n.T(lang),
		"languages":    i18n.SupportedLanguages,
	}, "translations retrieved")
}

func (s *Server) handleRecognize(c *gin.Context) {
	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	sess := s.sessions.AcquireOrCreate(req.SessionID)
	defer sess.mu.Unlock()

	mediaPath := req.MediaPath
	if mediaPath == "" {
		mediaPath = sess.MediaPath
	}
	if mediaPath == "" {
		fail(c, http.StatusBadRequest, i18n.T(s.cfg.Language).Errors.NoMedia)
		return
	}
	mediaPath, err := s.confine(mediaPath)
	if err != nil {
		fail(c, http.StatusBadRequest, "media_path: "+err.Error())
		return
	}
	outDir, err := s.resolveOutputDir(req.OutputDir)
	if err != nil {
		fail(c, http.StatusBadRequest, "output_dir: "+err.Error())
		return
	}

	st, err := s.svc.Recognize(c.Request.Context(), mediaPath, clipper.RecognizeOptions{
		Hotwords:  req.Hotwords,
		Language:  req.Language,
		Diarize:   req.Diarize,
		OutputDir: outDir,
	})
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	// the previous run's work files go unless the new run reuses them
	for _, old := range []*clipper.State{sess.Video, sess.Audio} {
		if old != nil && old.Dir != st.Dir {
			s.releaseFiles("", old)
		}
	}
	sess.MediaPath = mediaPath
	sess.SetState(st)
	ok(c, s.view(sess), "recognition done")
}

func (s *Server) clipRequest(f clipFields) (clipper.ClipRequest, error) {
	outDir, err := s.resolveOutputDir(f.OutputDir)
	if err != nil {
		return clipper.ClipRequest{}, err
	}
	req := clipper.ClipRequest{
		StartOffset: s.cfg.Clip.StartOffsetMS,
		EndOffset:   s.cfg.Clip.EndOffsetMS,
		Subtitles:   f.Subtitles,
		FontSize:    f.FontSize,
		FontColor:   f.FontColor,
		OutputDir:   outDir,
	}
	if f.StartOffset != nil {
		req.StartOffset = *f.StartOffset
	}
	if f.EndOffset != nil {
		req.EndOffset = *f.EndOffset
	}
	if req.FontSize == 0 {
		req.FontSize = s.cfg.Subtitle.FontSize
	}
	if req.FontColor == "" {
		req.FontColor = s.cfg.Subtitle.FontColor
	}
	return req, nil
}

// runClip clips the session state and writes the response. The caller
// holds the session lock.
func (s *Server) runClip(c *gin.Context, sess *Session, req clipper.ClipRequest, export string) {
	st := sess.State()
	if st == nil {
		fail(c, http.StatusConflict, clipper.ErrNoRecognitionState.Error())
		return
	}

	res, err := s.svc.Clip(c.Request.Context(), st, req)
	if errors.Is(err, clipper.ErrNoRecognitionState) {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	v := clipView{SessionID: sess.ID, Result: res, OutputURL: s.fileURL(res.Output)}
	for _, seg := range res.Segments {
		v.SegmentURLs = append(v.SegmentURLs, s.fileURL(seg))
	}

	if export != "" && res.Output != "" {
		v.Exported, err = webdav.Export(c.Request.Context(), s.cfg, export, []string{res.Output})
		if err != nil {
			_ = c.Error(err)
			fail(c, http.StatusBadGateway, "export failed: "+err.Error())
			return
		}
	}

	ok(c, v, res.Message)
}

func (s *Server) handleClip(c *gin.Context) {
	var body clipRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	req, err := s.clipRequest(body.clipFields)
	if err != nil {
		fail(c, http.StatusBadRequest, "output_dir: "+err.Error())
		return
	}
	req.Text = body.Text
	req.Speakers = body.Speakers

	sess := s.lock(c, body.SessionID)
	if sess == nil {
		return
	}
	defer sess.mu.Unlock()

	s.runClip(c, sess, req, body.Export)
}

func (s *Server) handleLLMInfer(c *gin.Context) {
	var req llmInferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var sess *Session
	if req.SessionID != "" {
		if sess = s.lock(c, req.SessionID); sess == nil {
			return
		}
		defer sess.mu.Unlock()
	}

	transcript := req.SRT
	if transcript == "" && sess != nil {
		if st := sess.State(); st != nil {
			transcript = st.SRT
		}
	}
	if transcript == "" {
		fail(c, http.StatusConflict, clipper.ErrNoRecognitionState.Error())
		return
	}

	r := llm.Request{
		System:     firstNonEmpty(req.System, s.cfg.LLM.SystemPrompt, llm.DefaultSystemPrompt),
		User:       firstNonEmpty(req.User, s.cfg.LLM.UserPrompt, llm.DefaultUserPrompt),
		Transcript: transcript,
		Model:      firstNonEmpty(req.Model, s.cfg.LLM.DefaultModel, llm.DefaultModel),
		APIKey:     req.APIKey,
	}

	logging.Component("server").WithField("model", r.Model).Info("llm inference")
	result := s.inf.Infer(c.Request.Context(), r)

	data := gin.H{"model": r.Model, "result": result}
	if sess != nil {
		sess.LLMResult = result
		data["session_id"] = sess.ID
	}
	ok(c, data, "inference done")
}

func (s *Server) handleLLMClip(c *gin.Context) {
	var body llmClipRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	req, err := s.clipRequest(body.clipFields)
	if err != nil {
		fail(c, http.StatusBadRequest, "output_dir: "+err.Error())
		return
	}

	sess := s.lock(c, body.SessionID)
	if sess == nil {
		return
	}
	defer sess.mu.Unlock()

	answer := body.LLMResult
	if answer == "" {
		answer = sess.LLMResult
	}
	req.Timestamps = timestamp.Collect(timestamp.Extract(answer))
	if len(req.Timestamps) == 0 {
		if sess.State() == nil {
			fail(c, http.StatusConflict, clipper.ErrNoRecognitionState.Error())
			return
		}
		ok(c, clipView{SessionID: sess.ID, Result: &clipper.ClipResult{
			Message: "No period found: the LLM result holds no timestamps.",
		}}, "no timestamps")
		return
	}

	s.runClip(c, sess, req, body.Export)
}

func (s *Server) handleModels(c *gin.Context) {
	ok(c, gin.H{
		"models":   llm.Models,
		"default":  firstNonEmpty(s.cfg.LLM.DefaultModel, llm.DefaultModel),
		"prefixes": llm.SupportedPrefixes,
	}, "models retrieved")
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess := s.lock(c, c.Param("id"))
	if sess == nil {
		return
	}
	defer sess.mu.Unlock()
	ok(c, s.view(sess), "session retrieved")
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	sess := s.sessions.Delete(c.Param("id"))
	if sess == nil {
		fail(c, http.StatusNotFound, i18n.T(s.cfg.Language).Errors.SessionGone)
		return
	}

	// wait for an in-flight request on it before touching its files
	sess.mu.Lock()
	s.release(sess)
	sess.mu.Unlock()
	ok(c, nil, "session deleted")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
