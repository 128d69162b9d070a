package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"media-share/internal/apperr"
	"media-share/internal/editor"
)

// editRequest is the edit boundary's body. Selection accepts either a
// single identifier or a list; a bare string is normalized to a
// one-element selection.
type editRequest struct {
	Token     string          `json:"token"`
	Selection json.RawMessage `json:"selection"`
	Action    string          `json:"action"`
	Value     string          `json:"value"`
}

// Edit applies a batch action to a selection of files. The body is
// either JSON or a form, distinguished by Content-Type.
func (h *Handlers) Edit(w http.ResponseWriter, r *http.Request) {
	req, err := parseEditRequest(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	hasSession := h.hasSession(r)
	if !hasSession && req.Token == "" {
		writeAppError(w, apperr.Unauthorized())
		return
	}

	if err := h.editor.Apply(r.Context(), *req, hasSession); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSONStatus(w, "ok")
}

func parseEditRequest(r *http.Request) (*editor.Request, error) {
	contentType := r.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	if strings.TrimSpace(contentType) == "application/json" {
		return parseEditJSON(r)
	}
	return parseEditForm(r)
}

func parseEditJSON(r *http.Request) (*editor.Request, error) {
	var body editRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, apperr.InvalidInput("Invalid request body")
	}

	selection, err := decodeSelection(body.Selection)
	if err != nil {
		return nil, err
	}
	return &editor.Request{
		Token:     body.Token,
		Selection: selection,
		Action:    body.Action,
		Value:     body.Value,
	}, nil
}

func parseEditForm(r *http.Request) (*editor.Request, error) {
	if err := r.ParseForm(); err != nil {
		return nil, apperr.InvalidInput("Invalid request body")
	}

	var selection []string
	if values, ok := r.PostForm["selection[]"]; ok {
		selection = values
	} else if v := r.PostFormValue("selection"); v != "" {
		selection = []string{v}
	}
	return &editor.Request{
		Token:     r.PostFormValue("token"),
		Selection: selection,
		Action:    r.PostFormValue("action"),
		Value:     r.PostFormValue("value"),
	}, nil
}

// decodeSelection accepts a JSON string or array of strings.
func decodeSelection(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, apperr.InvalidInput("Selection must be an identifier or a list of identifiers")
	}
	return many, nil
}
