package model

import (
	"fmt"
	"log/slog"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

type CueErrorCode string

const (
	CodeUnknownField      CueErrorCode = "unknown_field"
	CodeConflictingValues CueErrorCode = "conflicting_values"
	CodeValidation        CueErrorCode = "validation"
)

type CueErrorPosition struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// CueErrorDetail is one failed constraint of the configuration
type CueErrorDetail struct {
	Path    string           `json:"path"`
	Code    CueErrorCode     `json:"code"`
	Message string           `json:"message"`
	Pos     CueErrorPosition `json:"pos"`
	Raw     string           `json:"raw"`
}

func (d CueErrorDetail) Attr(key string) slog.Attr {
	return slog.Group(key,
		slog.String("path", d.Path),
		slog.String("code", string(d.Code)),
		slog.String("message", d.Message),
		slog.String("pos", fmt.Sprintf("%s:%d:%d", d.Pos.Filename, d.Pos.Line, d.Pos.Column)),
	)
}

// CueError provides more user friendly validation errors on top of
// those generated by cuelang itself
type CueError struct {
	cuerr error
}

// Error implements error interface, returns the string content of underlying
// cue error
func (e CueError) Error() string {
	return e.cuerr.Error()
}

// Unwrap allows one to get the original error via errors.As
func (e CueError) Unwrap() error {
	return e.cuerr
}

// Details provide human-friendlier error messages
func (e CueError) Details() []CueErrorDetail {
	return humanize(e.cuerr)
}

func humanize(err error) []CueErrorDetail {
	var ret []CueErrorDetail
	for _, e := range cueerrors.Errors(err) {
		var path []string
		for _, p := range e.Path() {
			// drop the schema definition, #Config
			if strings.HasPrefix(p, "#") {
				continue
			}
			path = append(path, p)
		}
		d := CueErrorDetail{
			Path: strings.Join(path, "."),
			Pos:  position(e),
			Raw:  e.Error(),
		}

		switch {
		case strings.Contains(d.Raw, "field not allowed"):
			d.Code = CodeUnknownField
			field := d.Path
			if len(path) > 0 {
				field = path[len(path)-1]
			}
			d.Message = fmt.Sprintf("Field %s is not allowed", field)
		case strings.Contains(d.Raw, "conflicting values"), strings.Contains(d.Raw, "empty disjunction"):
			d.Code = CodeConflictingValues
			d.Message = fmt.Sprintf("Conflicting values for %s", d.Path)
		default:
			d.Code = CodeValidation
			format, args := e.Msg()
			d.Message = fmt.Sprintf(format, args...)
		}
		ret = append(ret, d)
	}
	return ret
}

// position prefers the location inside the config file over the schema one
func position(e cueerrors.Error) CueErrorPosition {
	pick := func(p token.Pos) CueErrorPosition {
		return CueErrorPosition{
			Filename: p.Filename(),
			Line:     p.Line(),
			Column:   p.Column(),
		}
	}
	for _, p := range e.InputPositions() {
		if p.IsValid() && p.Filename() == "config.yaml" {
			return pick(p)
		}
	}
	if p := e.Position(); p.IsValid() {
		return pick(p)
	}
	return CueErrorPosition{}
}
