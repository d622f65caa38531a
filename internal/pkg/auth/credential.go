package auth

import (
	"net/http"
	"strings"
)

// BearerSubprotocol is the websocket subprotocol browsers use to carry the
// token, as "Sec-WebSocket-Protocol: bearer, <token>". Browsers cannot set
// an Authorization header on a websocket handshake.
const BearerSubprotocol = "bearer"

// CredentialFromRequest extracts the bearer credential from, in order, the
// Authorization header, the token query parameter and the websocket
// subprotocol list. It returns an empty string when none is present.
func CredentialFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	protocols := websocketProtocols(r)
	for i, p := range protocols {
		if strings.EqualFold(p, BearerSubprotocol) && i+1 < len(protocols) {
			return protocols[i+1]
		}
	}
	return ""
}

func websocketProtocols(r *http.Request) []string {
	var out []string
	for _, h := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(h, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
