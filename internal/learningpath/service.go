package learningpath

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/victornm/techbridge/internal/cache"
	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/errors"
	"github.com/victornm/techbridge/internal/llm"
)

// ModuleCount is the length of every learning path.
const ModuleCount = 5

type Config struct {
	Provider llm.Provider
	// Cache is optional.
	Cache     *cache.Cache
	MaxTokens int
}

// Service builds learning paths with an LLM. It keeps no state besides the cache.
type Service struct {
	provider  llm.Provider
	cache     *cache.Cache
	maxTokens int
}

func NewService(c Config) *Service {
	return &Service{
		provider:  c.Provider,
		cache:     c.Cache,
		maxTokens: c.MaxTokens,
	}
}

type GenerateRequest struct {
	Domain string
	Level  string
}

// Generate returns the learning path for the domain at the level. Output that is not exactly
// ModuleCount complete modules is an error and is not retried.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*domain.LearningPath, error) {
	d := strings.TrimSpace(req.Domain)
	if d == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("domain is required"))
	}

	level, err := domain.ParseLevel(strings.TrimSpace(req.Level))
	if err != nil {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid level: %q", req.Level))
	}

	key := cache.Key("learning-path", d, level.String())

	var lp domain.LearningPath
	if s.cache.Get(ctx, key, &lp) {
		return &lp, nil
	}

	modules, err := s.generate(llm.WithPurpose(ctx, "learning-path"), d, level)
	if err != nil {
		return nil, generationError(err)
	}

	lp = domain.LearningPath{
		Domain:  d,
		Level:   level,
		Modules: modules,
	}
	s.cache.Set(ctx, key, lp)

	slog.InfoContext(ctx, "learningpath: generated", "domain", d, "level", level)
	return &lp, nil
}

func (s *Service) generate(ctx context.Context, d string, level domain.Level) ([]domain.Module, error) {
	r := llm.UserPrompt(systemPrompt, prompt(d, level))
	r.Schema = pathSchema
	r.MaxTokens = s.maxTokens

	resp, err := s.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("generate learning path: %w", err)
	}

	var out struct {
		Modules []domain.Module `json:"modules"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	if len(out.Modules) != ModuleCount {
		return nil, &llm.ErrInvalidResponse{
			Content: resp.Content,
			Err:     fmt.Errorf("want %d modules, got %d", ModuleCount, len(out.Modules)),
		}
	}

	for i, m := range out.Modules {
		m.Title = strings.TrimSpace(m.Title)
		m.Description = strings.TrimSpace(m.Description)
		m.YoutubeQuery = strings.TrimSpace(m.YoutubeQuery)
		if m.Title == "" || m.Description == "" || m.YoutubeQuery == "" {
			return nil, &llm.ErrInvalidResponse{
				Content: resp.Content,
				Err:     fmt.Errorf("module %d is incomplete", i+1),
			}
		}
		out.Modules[i] = m
	}

	return out.Modules, nil
}

func generationError(err error) error {
	opts := []errors.Option{errors.WithMessagef("failed to generate learning path"), errors.WithCause(err)}

	var invalid *llm.ErrInvalidResponse
	if stderrors.As(err, &invalid) {
		opts = append(opts, errors.WithDetail("raw", string(invalid.Content)))
	}

	return errors.New(errors.CodeInternal, opts...)
}
