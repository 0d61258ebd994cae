package service

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/writeright/essay-api/internal/dto"
)

const (
	waitTimeout = 2 * time.Second
	waitTick    = 10 * time.Millisecond
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func dtoOCRUpdate(text string) dto.OCRTextUpdateRequest {
	return dto.OCRTextUpdateRequest{Text: text}
}
