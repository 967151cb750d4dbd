package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"seniorguard/internal/config"
	"seniorguard/internal/domain/models"
	"seniorguard/internal/infrastructure/cache"
	"seniorguard/internal/sources"
	"seniorguard/internal/sources/ai"
	"seniorguard/internal/sources/heuristic"
	"seniorguard/pkg/logger"
)

type fakeTranscriber struct {
	configured bool
	text       string
	err        error
	calls      atomic.Int32
}

func (f *fakeTranscriber) Configured() bool { return f.configured }

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (*ai.Transcription, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Transcription{Text: f.text, Language: "english"}, nil
}

type mapMemo struct {
	mu    sync.Mutex
	store map[string]*models.ThreatVerdict
}

func (m *mapMemo) Do(ctx context.Context, key string, compute func(context.Context) (*models.ThreatVerdict, bool)) (*models.ThreatVerdict, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return v, true
	}
	v, ok := compute(ctx)
	if ok {
		m.store[key] = v
	}
	return v, false
}

type recordingPublisher struct {
	mu         sync.Mutex
	verdicts   []*models.ThreatVerdict
	aggregates []*models.AggregateVerdict
}

func (p *recordingPublisher) PublishVerdict(_ context.Context, v *models.ThreatVerdict) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verdicts = append(p.verdicts, v)
	return nil
}

func (p *recordingPublisher) PublishAggregate(_ context.Context, v *models.AggregateVerdict) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aggregates = append(p.aggregates, v)
	return fmt.Errorf("broker unavailable")
}

func engineConfig() config.EngineConfig {
	return config.EngineConfig{MaxBatchURLs: 10, MaxTextBytes: 100_000, MaxAudioBytes: 1024}
}

func newLocalEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	reg := sources.NewRegistry(logger.NewNop())
	reg.MustRegister(heuristic.NewPatternHeuristic(), heuristic.NewPhraseSpotter())
	e := NewEngine(engineConfig(), reg, logger.NewNop(), opts...)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestScanVoiceTextScenarios(t *testing.T) {
	e := newLocalEngine(t)

	t.Run("government impersonation", func(t *testing.T) {
		v, err := e.ScanVoiceText(context.Background(),
			"This is the IRS, you have an arrest warrant, send payment immediately with gift cards")
		require.NoError(t, err)

		assert.Equal(t, models.CategoryGovernmentImpersonation, v.PrimaryCategory)
		assert.Equal(t, models.SeverityCritical, v.ThreatLevel)
		assert.Equal(t, heuristic.ImmediateActionCritical, v.ImmediateAction)
		assert.Equal(t, 90, v.Confidence)
		assert.False(t, v.IsSafe)
		require.NotNil(t, v.Indicators)
		assert.Equal(t, 6, v.Indicators.Total())
		assert.Equal(t, []string{"arrest warrant", "send payment immediately"}, v.DetectedPhrases["government_impersonation"])

		assert.Equal(t, v.Headline, v.Recommendations[0])
		assert.Contains(t, v.Recommendations, "They will never demand immediate payment")
		assert.Contains(t, v.Recommendations, paymentAdvice[0])
		assert.Contains(t, v.Recommendations, urgencyAdvice[0])
		assert.Equal(t, []string{ReminderNeverShare, ReminderVerify}, v.Recommendations[len(v.Recommendations)-2:])
	})

	t.Run("benign call", func(t *testing.T) {
		v, err := e.ScanVoiceText(context.Background(), "Hi, just checking in, how are you?")
		require.NoError(t, err)

		assert.True(t, v.IsSafe)
		assert.Equal(t, models.SeverityLow, v.ThreatLevel)
		assert.Equal(t, []string{ReminderNeverShare, ReminderVerify}, v.Recommendations)
		assert.NotEmpty(t, v.Headline)
		assert.Empty(t, v.ImmediateAction)
	})

	t.Run("empty transcript is rejected", func(t *testing.T) {
		_, err := e.ScanVoiceText(context.Background(), "   ")
		assert.True(t, models.IsInputValidation(err))
	})
}

func TestScanIsIdempotent(t *testing.T) {
	e := newLocalEngine(t)
	first, err := e.ScanURL(context.Background(), "http://192.168.1.5/paypal-secure-login")
	require.NoError(t, err)
	second, err := e.ScanURL(context.Background(), "http://192.168.1.5/paypal-secure-login")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, models.SeverityMedium, first.ThreatLevel)
	assert.Len(t, first.Threats, 2)
}

func TestScanURLRejectsBadInput(t *testing.T) {
	e := newLocalEngine(t)
	for _, raw := range []string{"", "ftp://example.com/file", "http://"} {
		_, err := e.ScanURL(context.Background(), raw)
		assert.True(t, models.IsInputValidation(err), "input %q", raw)
	}
}

func TestScanVoiceStream(t *testing.T) {
	e := newLocalEngine(t)

	v, err := e.ScanVoiceStream(context.Background(), []string{"Hello, this is Microsoft support.", "", "  ", "Please install anydesk for remote access"})
	require.NoError(t, err)
	assert.Equal(t, 2, v.ChunksAnalyzed)
	assert.Equal(t, "Please install anydesk for remote access", v.LatestChunk)
	assert.Equal(t, models.CategoryTechSupport, v.PrimaryCategory)
	assert.Equal(t, models.SeverityHigh, v.ThreatLevel)

	_, err = e.ScanVoiceStream(context.Background(), []string{"", " "})
	assert.ErrorIs(t, err, models.ErrEmptyInput)
	_, err = e.ScanVoiceStream(context.Background(), nil)
	assert.True(t, models.IsInputValidation(err))
}

func TestScanVoiceAudio(t *testing.T) {
	t.Run("unsupported format never reaches the transcriber", func(t *testing.T) {
		tr := &fakeTranscriber{configured: true, text: "irrelevant"}
		e := newLocalEngine(t, WithTranscriber(tr))

		_, err := e.ScanVoiceAudio(context.Background(), []byte("audio"), "flac")
		assert.ErrorIs(t, err, models.ErrUnsupportedAudioFormat)
		_, err = e.ScanVoiceAudio(context.Background(), make([]byte, 2048), "wav")
		assert.ErrorIs(t, err, models.ErrInputTooLarge)
		assert.Zero(t, tr.calls.Load())
	})

	t.Run("transcript is analyzed", func(t *testing.T) {
		tr := &fakeTranscriber{configured: true, text: "Your computer has a virus, call microsoft support"}
		e := newLocalEngine(t, WithTranscriber(tr))

		v, err := e.ScanVoiceAudio(context.Background(), []byte("audio"), "mp3")
		require.NoError(t, err)
		assert.Equal(t, "Your computer has a virus, call microsoft support", v.Transcript)
		assert.Equal(t, "english", v.Language)
		assert.Equal(t, models.CategoryTechSupport, v.PrimaryCategory)
	})

	t.Run("transcription failure still yields a verdict", func(t *testing.T) {
		tr := &fakeTranscriber{configured: true, err: models.NewTransientError(ai.TranscriberSourceID, 500, "unexpected status", nil)}
		e := newLocalEngine(t, WithTranscriber(tr))

		v, err := e.ScanVoiceAudio(context.Background(), []byte("audio"), "ogg")
		require.NoError(t, err)
		assert.Empty(t, v.Contributors)
		assert.Equal(t, InsufficientSignalHeadline, v.Headline)
		assert.Equal(t, models.ErrorKindTransientProvider, v.Evidence[ai.TranscriberSourceID].Error)

		assert.Equal(t, models.SubjectKindAudio, v.Subject.Kind())
		assert.Equal(t, "ogg", v.Subject.Value())
		data, err := json.Marshal(v)
		require.NoError(t, err)
		var back models.ThreatVerdict
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, models.SubjectKindAudio, back.Subject.Kind())
	})

	t.Run("missing transcriber", func(t *testing.T) {
		e := newLocalEngine(t)
		v, err := e.ScanVoiceAudio(context.Background(), []byte("audio"), "m4a")
		require.NoError(t, err)
		assert.Equal(t, models.ErrorKindConfiguration, v.Evidence[ai.TranscriberSourceID].Error)
	})
}

func TestScanEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := sources.NewRegistry(logger.NewNop())
	counter := mockSource(ctrl, "counter", time.Second, models.SubjectKindURL)
	reg.MustRegister(counter)

	var calls atomic.Int32
	counter.EXPECT().Check(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s models.ScanSubject) (*models.SignalResult, error) {
		calls.Add(1)
		if strings.Contains(s.Value(), "evil") {
			return detected("counter", models.SeverityHigh, 90, models.CategoryMalware, "Malware host "+s.Host()), nil
		}
		return models.Undetected("counter"), nil
	}).AnyTimes()

	pub := &recordingPublisher{}
	e := NewEngine(engineConfig(), reg, logger.NewNop(), WithPublisher(pub))

	t.Run("batch cap", func(t *testing.T) {
		var body strings.Builder
		for i := 0; i < 15; i++ {
			fmt.Fprintf(&body, "link %d: https://site%d.example/page\n", i, i)
		}
		agg, err := e.ScanEmail(context.Background(), body.String())
		require.NoError(t, err)

		assert.Equal(t, 15, agg.URLsFound)
		assert.Equal(t, 10, agg.URLsScanned)
		require.Len(t, agg.URLResults, 10)
		assert.Equal(t, "https://site9.example/page", agg.URLResults[9].Subject.Value())
		assert.Equal(t, int32(10), calls.Load())
		assert.True(t, agg.IsSafe)
	})

	t.Run("url threats in scan order, keyword sweep suppressed", func(t *testing.T) {
		agg, err := e.ScanEmail(context.Background(),
			"URGENT: verify at https://evil-one.example/a then https://fine.example and https://evil-two.example/b")
		require.NoError(t, err)

		assert.Equal(t, models.SeverityHigh, agg.ThreatLevel)
		assert.Equal(t, []string{"Malware host evil-one.example", "Malware host evil-two.example"}, agg.Threats)
		assert.Equal(t, []string{"urgent", "verify"}, agg.KeywordsFound)
		assert.Equal(t, models.CategoryMalware, agg.PrimaryCategory)
	})

	t.Run("keyword sweep only", func(t *testing.T) {
		agg, err := e.ScanEmail(context.Background(), "Claim your prize now, winner! Send a gift card.")
		require.NoError(t, err)

		assert.Zero(t, agg.URLsFound)
		assert.Equal(t, models.SeverityMedium, agg.ThreatLevel)
		assert.Equal(t, []string{"Email contains scam keywords: prize, winner, claim, gift card"}, agg.Threats)
		assert.False(t, agg.IsSafe)
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := e.ScanEmail(context.Background(), "")
		assert.True(t, models.IsInputValidation(err))
	})

	pub.mu.Lock()
	assert.Len(t, pub.aggregates, 3)
	pub.mu.Unlock()
}

func TestMemoizedScans(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := sources.NewRegistry(logger.NewNop())
	src := mockSource(ctrl, "remote", time.Second, models.SubjectKindURL)
	reg.MustRegister(src)

	memo := &mapMemo{store: make(map[string]*models.ThreatVerdict)}
	e := NewEngine(engineConfig(), reg, logger.NewNop(), WithMemoizer(memo))

	src.EXPECT().Check(gomock.Any(), gomock.Any()).Return(nil, models.NewTransientError("remote", 502, "bad gateway", nil))
	src.EXPECT().Check(gomock.Any(), gomock.Any()).Return(models.Undetected("remote"), nil).Times(1)

	_, err := e.ScanURL(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Empty(t, memo.store, "degraded verdicts are not cached")

	first, err := e.ScanURL(context.Background(), "https://example.com")
	require.NoError(t, err)
	second, err := e.ScanURL(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestConcurrentScansSurviveOneCancelledCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := sources.NewRegistry(logger.NewNop())
	src := mockSource(ctrl, "remote", 5*time.Second, models.SubjectKindURL)
	reg.MustRegister(src)

	src.EXPECT().Check(gomock.Any(), gomock.Any()).
		DoAndReturn(answerAfter(300*time.Millisecond,
			detected("remote", models.SeverityHigh, 90, models.CategoryMalware, "Malware host"))).
		AnyTimes()

	memo := cache.NewMemoizer(cache.NewMemory(16, time.Minute), time.Minute, logger.NewNop())
	e := NewEngine(engineConfig(), reg, logger.NewNop(), WithMemoizer(memo))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan *models.ThreatVerdict, 1)
	go func() {
		v, _ := e.ScanURL(firstCtx, "https://evil.example/login")
		firstDone <- v
	}()

	waiterDone := make(chan *models.ThreatVerdict, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		v, _ := e.ScanURL(context.Background(), "https://evil.example/login")
		waiterDone <- v
	}()

	time.Sleep(100 * time.Millisecond)
	cancelFirst()

	first := <-firstDone
	assert.Equal(t, models.ErrorKindCancelled, first.Evidence["remote"].Error)

	waiter := <-waiterDone
	assert.Equal(t, models.SeverityHigh, waiter.ThreatLevel)
	assert.False(t, waiter.IsSafe)
	assert.Empty(t, waiter.Evidence["remote"].Error)
	assert.Equal(t, []string{"Malware host"}, waiter.Threats)
}

func TestScanVoiceTextKeepsPhraseCategoryAlongsideAI(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := sources.NewRegistry(logger.NewNop())
	analyzer := mockSource(ctrl, ai.ContentAnalyzerSourceID, time.Second, sources.TextKinds...)
	reg.MustRegister(analyzer, heuristic.NewPhraseSpotter())
	e := NewEngine(engineConfig(), reg, logger.NewNop())

	t.Run("unscored lottery call flagged by the model", func(t *testing.T) {
		analyzer.EXPECT().Check(gomock.Any(), gomock.Any()).Return(
			detected(ai.ContentAnalyzerSourceID, models.SeverityMedium, 70, models.CategoryAIFlagged, "Promises a prize for nothing"), nil)

		v, err := e.ScanVoiceText(context.Background(), "Congratulations, you've won! Claim your prize today")
		require.NoError(t, err)

		assert.Equal(t, models.SeverityMedium, v.ThreatLevel)
		assert.Equal(t, models.CategoryLottery, v.PrimaryCategory)
		assert.Contains(t, v.Recommendations, "You cannot win a lottery or prize you never entered")
	})

	t.Run("model raises the level, classifier keeps the category", func(t *testing.T) {
		analyzer.EXPECT().Check(gomock.Any(), gomock.Any()).Return(
			detected(ai.ContentAnalyzerSourceID, models.SeverityHigh, 80, models.CategoryAIFlagged, "Pressure to pay a fee"), nil)

		v, err := e.ScanVoiceText(context.Background(), "You've won! Claim your prize, please confirm")
		require.NoError(t, err)

		assert.Equal(t, models.SeverityHigh, v.ThreatLevel)
		assert.Equal(t, models.CategoryLottery, v.PrimaryCategory)
		assert.Contains(t, v.Tags, models.CategoryAIFlagged)
		assert.Contains(t, v.Recommendations, "Real prizes never require a fee or taxes paid up front")
	})

	t.Run("model alone keeps its category", func(t *testing.T) {
		analyzer.EXPECT().Check(gomock.Any(), gomock.Any()).Return(
			detected(ai.ContentAnalyzerSourceID, models.SeverityMedium, 60, models.CategoryAIFlagged, "Odd request"), nil)

		v, err := e.ScanVoiceText(context.Background(), "Can you pick up the package from the neighbor?")
		require.NoError(t, err)
		assert.Equal(t, models.CategoryAIFlagged, v.PrimaryCategory)
	})
}

func TestCapabilities(t *testing.T) {
	e := newLocalEngine(t, WithTranscriber(&fakeTranscriber{}))
	caps := e.Capabilities()

	require.Len(t, caps, 3)
	assert.Equal(t, heuristic.PatternSourceID, caps[0].SourceID)
	assert.True(t, caps[0].Configured)
	assert.Equal(t, ai.TranscriberSourceID, caps[2].SourceID)
	assert.False(t, caps[2].Configured)
}
