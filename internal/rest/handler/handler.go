package handler

import (
	"errors"
	"net/http"

	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	restTypes "github.com/Dpatt168/RoGrouper-sub001/internal/rest/types"
	"github.com/bytedance/sonic"
	"github.com/uptrace/bunrouter"
)

// writeError sends a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, message string) error {
	w.WriteHeader(status)
	return bunrouter.JSON(w, restTypes.ErrorResponse{Error: message})
}

// writeUpstreamError sends a 500 with the upstream status and body attached
// as diagnostics when a Roblox API caused the failure.
func writeUpstreamError(w http.ResponseWriter, message string, err error) error {
	response := restTypes.ErrorResponse{Error: message}

	var upstream *fetcher.UpstreamError
	if errors.As(err, &upstream) {
		response.UpstreamStatus = upstream.StatusCode
		response.UpstreamBody = upstream.Body
	}

	w.WriteHeader(http.StatusInternalServerError)

	return bunrouter.JSON(w, response)
}

// decodeBody parses a JSON request body into out.
func decodeBody(req bunrouter.Request, out any) error {
	defer req.Body.Close()
	return sonic.ConfigDefault.NewDecoder(req.Body).Decode(out)
}
