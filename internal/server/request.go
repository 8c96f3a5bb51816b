package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/spigell/career-matcher/internal/advisor"
	"github.com/spigell/career-matcher/internal/profile"
)

// matchOptions are the non-score fields of a match request.
type matchOptions struct {
	TopN       int      `mapstructure:"topN" validate:"gte=0,lte=100"`
	Explain    bool     `mapstructure:"explain"`
	MinScore   *int     `mapstructure:"minScore" validate:"omitempty,gte=0,lte=100"`
	Categories []string `mapstructure:"categories" validate:"max=20,dive,max=64"`
	ExcludeIDs []string `mapstructure:"excludeIds" validate:"max=100,dive,max=128"`
}

// decodeMatchRequest reads a JSON body into an advisor request. Scores are
// normalized leniently; the options must be well formed.
func (s *Server) decodeMatchRequest(r *http.Request) (advisor.Request, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return advisor.Request{}, errors.New("request body is empty")
		}
		return advisor.Request{}, fmt.Errorf("invalid json: %w", err)
	}
	if body == nil {
		return advisor.Request{}, errors.New("request body must be a json object")
	}

	p, err := profile.Decode(body)
	if err != nil {
		return advisor.Request{}, err
	}

	var opts matchOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return advisor.Request{}, err
	}
	if err := decoder.Decode(body); err != nil {
		return advisor.Request{}, fmt.Errorf("decode options: %w", err)
	}

	if err := s.validate.Struct(opts); err != nil {
		return advisor.Request{}, errors.New(extractValidationErrors(err))
	}

	return advisor.Request{
		Profile: p,
		TopN:    opts.TopN,
		Explain: opts.Explain,
		Filters: advisor.Overrides{
			MinScore:   opts.MinScore,
			Categories: opts.Categories,
			ExcludeIDs: opts.ExcludeIDs,
		},
	}, nil
}

func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msg := fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		messages = append(messages, msg)
	}
	return strings.Join(messages, "; ")
}
