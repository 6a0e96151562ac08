package garmin

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/apedley/SparkyFitness/internal/model"
)

// tokenPayload is what rides inside the opaque blob handed to callers.
// Callers store the blob as a single string and present it back on data
// requests; nothing else in the system looks inside it.
type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

func encodeTokens(p tokenPayload) (model.SessionTokens, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return model.SessionTokens(base64.StdEncoding.EncodeToString(raw)), nil
}

func decodeTokens(t model.SessionTokens) (tokenPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(string(t))
	if err != nil {
		return tokenPayload{}, err
	}
	var p tokenPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return tokenPayload{}, err
	}
	if p.AccessToken == "" {
		return tokenPayload{}, errors.New("token payload missing access token")
	}
	return p, nil
}
