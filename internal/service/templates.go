package service

import (
	"context"
	"errors"
	"strings"

	"template_purifier/internal/purifier"
	"template_purifier/internal/template"
)

var ErrEmptyTemplate = errors.New("template is empty")

type TemplateService struct {
	engine *template.Engine
	states purifier.StateSource
}

func NewTemplateService(engine *template.Engine, states purifier.StateSource) *TemplateService {
	return &TemplateService{engine: engine, states: states}
}

// Render compiles src and renders it against one read of the current states.
func (s *TemplateService) Render(ctx context.Context, src string, vars map[string]any) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", ErrEmptyTemplate
	}
	tpl, err := s.engine.Parse(src)
	if err != nil {
		return "", err
	}
	list, err := s.states.List(ctx)
	if err != nil {
		return "", err
	}
	return tpl.Render(template.NewStates(list), vars)
}
