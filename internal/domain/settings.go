package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Settings is the discovery request payload: a glob pattern selecting
// the CSV files to scan. SkipInference leaves every column untyped;
// publish then passes values through as strings.
type Settings struct {
	FileGlob      string `json:"fileGlob"`
	SkipInference bool   `json:"skipInference,omitempty"`
}

// settingsTokenPrefix versions the schema settings encoding. Bump it
// when the payload shape changes so stale tokens fail loudly instead
// of decoding garbage.
const settingsTokenPrefix = "csv1:"

type settingsPayload struct {
	Files []string `json:"files"`
}

// EncodeFileSet packs a schema's member file paths into the opaque
// settings token. The token is stable across process restarts: it
// carries everything needed to re-open the files, nothing else.
func EncodeFileSet(files []string) string {
	data, _ := json.Marshal(settingsPayload{Files: files})
	return settingsTokenPrefix + base64.RawURLEncoding.EncodeToString(data)
}

// DecodeFileSet unpacks a settings token produced by EncodeFileSet.
// Any malformed or foreign token yields a ProtocolError.
func DecodeFileSet(token string) ([]string, error) {
	body, ok := strings.CutPrefix(token, settingsTokenPrefix)
	if !ok {
		return nil, &ProtocolError{Reason: fmt.Sprintf("schema settings: unrecognized token format (want %q prefix)", settingsTokenPrefix)}
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, &ProtocolError{Reason: "schema settings: token is not valid base64", Err: err}
	}
	var p settingsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ProtocolError{Reason: "schema settings: token payload is not valid JSON", Err: err}
	}
	if len(p.Files) == 0 {
		return nil, &ProtocolError{Reason: "schema settings: token contains no files"}
	}
	return p.Files, nil
}
