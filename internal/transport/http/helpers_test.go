package http

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"

	"roomchat/internal/log"
)

func nopLogger() *zerolog.Logger {
	return log.Nop()
}

func jsonDecode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}
