package main

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/artifacts"
)

var errSharingDisabled = errors.New("artifact sharing is disabled")

// shareURL signs a download link for an artifact
func (rm *RouteManager) shareURL(digest string) (string, time.Time, error) {
	if rm.signer == nil {
		return "", time.Time{}, errSharingDisabled
	}
	token, expires, err := rm.signer.Sign(digest, rm.cfg.Artifacts.ShareTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return "/artifacts/" + digest + "?" + url.Values{"token": {token}}.Encode(), expires, nil
}

// shareArtifactHandler issues a new download link for a stored artifact
func (rm *RouteManager) shareArtifactHandler(w http.ResponseWriter, r *http.Request) {
	if rm.signer == nil {
		rm.writeError(w, r, fmt.Errorf("%w: %w", artifacts.ErrNotFound, errSharingDisabled))
		return
	}

	digest := mux.Vars(r)["digest"]
	if _, err := rm.artifacts.Stat(digest); err != nil {
		rm.writeError(w, r, err)
		return
	}

	link, expires, err := rm.shareURL(digest)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"download_url": link,
		"expires_at":   expires,
	})
}

// downloadArtifactHandler serves an artifact to holders of a valid share
// token
func (rm *RouteManager) downloadArtifactHandler(w http.ResponseWriter, r *http.Request) {
	if rm.signer == nil {
		rm.writeError(w, r, artifacts.ErrNotFound)
		return
	}

	digest := mux.Vars(r)["digest"]
	signed, err := rm.signer.Verify(r.URL.Query().Get("token"))
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	if signed != digest {
		rm.writeError(w, r, artifacts.ErrInvalidToken)
		return
	}

	rc, ref, err := rm.artifacts.Open(digest)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", ref.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ref.Name}))
	http.ServeContent(w, r, ref.Name, time.Time{}, rc)
}
