package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/core/media"
)

var errOutsideRoot = errors.New("path is outside the output directory")

// within reports whether p lies strictly inside root.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, filepath.Clean(p))
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// release removes the files a session owns: its upload and the work
// directories of its recognition states. The caller holds the session lock
// or the session is unreachable.
func (s *Server) release(sess *Session) {
	s.releaseFiles(sess.MediaPath, sess.Video, sess.Audio)
}

// releaseFiles removes mediaPath when it is an upload and each state's Dir
// when it is a work directory. Anything else belongs to the user.
func (s *Server) releaseFiles(mediaPath string, states ...*clipper.State) {
	log := logging.Component("server")
	if mediaPath != "" && within(s.uploadDir, mediaPath) {
		if err := os.Remove(mediaPath); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("failed to remove upload")
		}
	}
	for _, st := range states {
		if st == nil || st.Dir == "" || !within(s.workDir, st.Dir) {
			continue
		}
		if err := os.RemoveAll(st.Dir); err != nil {
			log.WithError(err).Warn("failed to remove work directory")
		}
	}
}

// confine resolves p and checks it lies under the output root. Relative
// paths are taken relative to the root.
func (s *Server) confine(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.outputDir, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(s.outputDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return p, nil
}

// resolveOutputDir maps a user supplied directory into the output root.
// Blank stays blank.
func (s *Server) resolveOutputDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", nil
	}
	return s.confine(dir)
}

// fileURL is the /api/files URL for an artifact, "" when it is outside
// the root.
func (s *Server) fileURL(p string) string {
	if p == "" {
		return ""
	}
	rel, err := filepath.Rel(s.outputDir, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/api/files/" + filepath.ToSlash(rel)
}

func (s *Server) handleUpload(c *gin.Context) {
	limit := int64(s.cfg.Server.MaxUploadMB) << 20
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	file, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "no file uploaded: "+err.Error())
		return
	}

	name := filepath.Base(file.Filename)
	if name == "." || name == string(filepath.Separator) {
		fail(c, http.StatusBadRequest, "invalid file name")
		return
	}
	dst := filepath.Join(s.uploadDir, uuid.NewString()[:8]+"_"+name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "failed to save upload: "+err.Error())
		return
	}

	sess := s.sessions.AcquireOrCreate(c.PostForm("session_id"))
	defer sess.mu.Unlock()

	// new media invalidates whatever was recognized before
	s.release(sess)
	sess.MediaPath = dst
	sess.Video, sess.Audio, sess.LLMResult = nil, nil, ""

	ok(c, gin.H{
		"session_id": sess.ID,
		"media_path": dst,
		"kind":       media.KindOf(dst),
		"url":        s.fileURL(dst),
		"size":       file.Size,
	}, "file uploaded")
}

func (s *Server) handleFile(c *gin.Context) {
	p, err := s.confine(strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil {
		fail(c, http.StatusForbidden, err.Error())
		return
	}

	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		fail(c, http.StatusNotFound, "file not found")
		return
	}
	c.File(p)
}
