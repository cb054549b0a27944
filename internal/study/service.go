package study

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
	"github.com/victornm/techbridge/internal/study/youtube"
)

const (
	// maxTranscript is the number of transcript characters sent to the provider.
	maxTranscript = 15000
	quizSize      = 5
	optionCount   = 4
)

// VideoSearcher resolves a search query to a video id.
type VideoSearcher interface {
	SearchVideo(ctx context.Context, query string) (string, error)
}

type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

type Config struct {
	Provider    llm.Provider
	Searcher    VideoSearcher
	Transcripts TranscriptFetcher
	// Cache is optional.
	Cache     *cache.Cache
	MaxTokens int
}

// Service builds study guides from video transcripts.
type Service struct {
	provider    llm.Provider
	searcher    VideoSearcher
	transcripts TranscriptFetcher
	cache       *cache.Cache
	maxTokens   int
}

func NewService(c Config) *Service {
	return &Service{
		provider:    c.Provider,
		searcher:    c.Searcher,
		transcripts: c.Transcripts,
		cache:       c.Cache,
		maxTokens:   c.MaxTokens,
	}
}

type GuideRequest struct {
	// VideoURL is a watch URL, a youtu.be short link or a search results URL.
	VideoURL string
}

// Guide summarizes the video and writes a self-check quiz about it.
func (s *Service) Guide(ctx context.Context, req GuideRequest) (*domain.StudyGuide, error) {
	raw := strings.TrimSpace(req.VideoURL)
	if raw == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("videoUrl is required"))
	}

	target, err := ParseVideoURL(raw)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("%s", err), errors.WithCause(err))
	}

	videoID := target.VideoID
	if videoID == "" {
		videoID, err = s.searcher.SearchVideo(ctx, target.Query)
		if stderrors.Is(err, youtube.ErrNoVideo) {
			return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("no video found for %q", target.Query))
		}
		if err != nil {
			return nil, errors.New(errors.CodeUnavailable, errors.WithMessagef("video search failed"), errors.WithCause(err))
		}
	}

	key := cache.Key("study-guide", videoID)

	var g domain.StudyGuide
	if s.cache.Get(ctx, key, &g) {
		return &g, nil
	}

	transcript, err := s.transcripts.Transcript(ctx, videoID)
	if stderrors.Is(err, youtube.ErrNoTranscript) {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("could not fetch transcript, the video might not have captions"),
			errors.WithCause(err))
	}
	if err != nil {
		slog.WarnContext(ctx, "study: fetch transcript failed", "video_id", videoID, "error", err)
		return nil, errors.New(errors.CodeUnavailable, errors.WithMessagef("could not fetch transcript"), errors.WithCause(err))
	}

	summary, quiz, err := s.generate(llm.WithPurpose(ctx, "study-guide"), truncate(transcript, maxTranscript))
	if err != nil {
		return nil, generationError(err)
	}

	g = domain.StudyGuide{
		VideoURL: WatchURL(videoID),
		VideoID:  videoID,
		Summary:  summary,
		Quiz:     quiz,
	}
	s.cache.Set(ctx, key, g)

	slog.InfoContext(ctx, "study: guide generated", "video_id", videoID, "transcript_len", len(transcript))
	return &g, nil
}

type guideOutput struct {
	Summary string                 `json:"summary"`
	Quiz    []domain.StudyQuestion `json:"quiz"`
}

func (s *Service) generate(ctx context.Context, transcript string) (string, []domain.StudyQuestion, error) {
	r := llm.UserPrompt(systemPrompt, prompt(transcript))
	r.Schema = guideSchema
	r.MaxTokens = s.maxTokens

	resp, err := s.provider.Generate(ctx, r)
	if err != nil {
		return "", nil, fmt.Errorf("generate study guide: %w", err)
	}

	var out guideOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	if err := check(out); err != nil {
		return "", nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	return out.Summary, out.Quiz, nil
}

func check(out guideOutput) error {
	if strings.TrimSpace(out.Summary) == "" {
		return fmt.Errorf("empty summary")
	}

	if len(out.Quiz) != quizSize {
		return fmt.Errorf("want %d quiz questions, got %d", quizSize, len(out.Quiz))
	}

	for i, q := range out.Quiz {
		if len(q.Options) != optionCount {
			return fmt.Errorf("quiz question %d: want %d options, got %d", i+1, optionCount, len(q.Options))
		}

		found := false
		for _, o := range q.Options {
			if o == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("quiz question %d: correct answer %q is not one of the options", i+1, q.CorrectAnswer)
		}
	}

	return nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func generationError(err error) error {
	opts := []errors.Option{errors.WithMessagef("failed to generate study guide"), errors.WithCause(err)}

	var invalid *llm.ErrInvalidResponse
	if stderrors.As(err, &invalid) {
		opts = append(opts, errors.WithDetail("raw", string(invalid.Content)))
	}

	return errors.New(errors.CodeInternal, opts...)
}
