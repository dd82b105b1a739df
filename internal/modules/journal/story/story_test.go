package story

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/daylog/core/internal/config"
	"github.com/daylog/core/internal/models"
	"github.com/daylog/core/internal/modules/processing/ai"
	"github.com/daylog/core/internal/platform"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

const weekMarkdown = "# My Week\n\n## Blurb\nA week of weather.\n"

type fakeBackend struct {
	mu       sync.Mutex
	userID   string
	authErr  error
	notes    []platform.DayNote
	listErr  error
	insertFn func(models.Story) error
	queries  []platform.EntryQuery
	stories  map[string]models.Story
	inserts  int
}

func newFakeBackend(notes ...platform.DayNote) *fakeBackend {
	return &fakeBackend{userID: "u-1", notes: notes, stories: map[string]models.Story{}}
}

func (f *fakeBackend) Authenticate(_ context.Context, cred platform.Credential) (platform.Caller, error) {
	if f.authErr != nil {
		return platform.Caller{}, f.authErr
	}
	if cred.Token() == "" {
		return platform.Caller{}, platform.ErrUnauthorized
	}
	return platform.Caller{UserID: f.userID, Credential: cred}, nil
}

func (f *fakeBackend) UpsertEntry(context.Context, platform.Credential, models.Entry) (*models.Entry, error) {
	return nil, errors.New("not used")
}

func (f *fakeBackend) ListEntries(_ context.Context, _ platform.Caller, q platform.EntryQuery) ([]platform.DayNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.notes, f.listErr
}

func (f *fakeBackend) InsertStory(_ context.Context, _ platform.Caller, s models.Story) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertFn != nil {
		if err := f.insertFn(s); err != nil {
			return err
		}
	}
	if _, ok := f.stories[s.ID]; ok {
		return &platform.Error{Status: 409, Code: platform.CodeUniqueViolation, Message: "duplicate key value violates unique constraint \"stories_pkey\""}
	}
	f.stories[s.ID] = s
	return nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string]platform.Object
	err     error
}

func (b *fakeBlobs) Upload(_ context.Context, _ platform.Caller, obj platform.Object) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if b.objects == nil {
		b.objects = map[string]platform.Object{}
	}
	b.objects[obj.Bucket+"/"+obj.Path] = obj
	return nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	out     ai.Generation
	err     error
	prompts []ai.Prompt
}

func (g *fakeGenerator) Generate(_ context.Context, p ai.Prompt) (ai.Generation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	return g.out, g.err
}

func readyConfig() *config.AppConfig {
	return &config.AppConfig{
		Supabase:   config.SupabaseConfig{URL: "https://x.supabase.co", AnonKey: "anon"},
		Data:       config.DataConfig{Driver: config.DriverSupabase, EntriesTable: "one_liners", StoriesTable: "stories"},
		Storage:    config.StorageConfig{Driver: config.DriverSupabase, Bucket: "stories-md"},
		Generation: config.GenerationConfig{Provider: config.ProviderOpenAI, APIKey: "sk", CentsPerToken: 0.01},
	}
}

type harness struct {
	backend *fakeBackend
	blobs   *fakeBlobs
	gen     *fakeGenerator
	router  *gin.Engine
}

func newHarness(cfg *config.AppConfig, backend *fakeBackend, gen *fakeGenerator, opts ...Option) *harness {
	h := &harness{backend: backend, blobs: &fakeBlobs{}, gen: gen, router: gin.New()}
	svc := NewService(cfg, backend, h.blobs, gen, zap.NewNop(), opts...)
	NewHandler(svc, zap.NewNop()).RegisterRoutes(h.router.Group(""))
	return h
}

func (h *harness) post(body string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer user-jwt")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func fixedID(id string) Option {
	return WithIDGenerator(func() string { return id })
}

func twoNotes() []platform.DayNote {
	return []platform.DayNote{{Day: "2024-06-01", Text: "Rain"}, {Day: "2024-06-02", Text: "Sun"}}
}

func TestCompileHappyPath(t *testing.T) {
	gen := &fakeGenerator{out: ai.Generation{Text: weekMarkdown, Usage: &ai.Usage{TotalTokens: 350}}}
	h := newHarness(readyConfig(), newFakeBackend(twoNotes()...), gen, fixedID("s-1"))

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true,"id":"s-1","title":"My Week","md_path":"u-1/s-1.md"}`, w.Body.String())

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0].User, "Daily notes:\n- (2024-06-01) Rain\n- (2024-06-02) Sun\n\n")
	assert.Contains(t, gen.prompts[0].System, "Style: Cozy. Persona: none.")

	require.Equal(t, []platform.EntryQuery{{Table: "one_liners", From: "2024-06-01", To: "2024-06-07"}}, h.backend.queries)

	obj, ok := h.blobs.objects["stories-md/u-1/s-1.md"]
	require.True(t, ok)
	assert.Equal(t, weekMarkdown, string(obj.Body))
	assert.Equal(t, "text/markdown; charset=utf-8", obj.ContentType)

	row := h.backend.stories["s-1"]
	assert.Equal(t, "u-1", row.UserID)
	assert.Equal(t, models.Date("2024-06-01"), row.FromDay)
	assert.Equal(t, models.Date("2024-06-07"), row.ToDay)
	assert.Equal(t, "My Week", row.Title)
	assert.Equal(t, "Cozy", row.Style)
	assert.Nil(t, row.Persona)
	assert.Equal(t, "u-1/s-1.md", row.MDPath)
	assert.Equal(t, ContentHash(weekMarkdown), row.ContentHash)
	assert.Equal(t, int64(350), row.Tokens)
	assert.Equal(t, int64(4), row.CostCents)
	assert.Equal(t, models.StoryStatusReady, row.Status)
}

func TestCompileTitleOverrideWins(t *testing.T) {
	gen := &fakeGenerator{out: ai.Generation{Text: weekMarkdown}}
	h := newHarness(readyConfig(), newFakeBackend(twoNotes()...), gen, fixedID("s-2"))

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07","title":"Rainy Days","style":"Noir","persona":"a detective"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"id":"s-2","title":"Rainy Days","md_path":"u-1/s-2.md"}`, w.Body.String())

	row := h.backend.stories["s-2"]
	assert.Equal(t, "Noir", row.Style)
	require.NotNil(t, row.Persona)
	assert.Equal(t, "a detective", *row.Persona)
	assert.Equal(t, int64(0), row.Tokens)
	assert.Equal(t, int64(0), row.CostCents)
	assert.Contains(t, gen.prompts[0].System, "Style: Noir. Persona: a detective.")
}

func TestCompileSameIDTwiceKeepsOneRow(t *testing.T) {
	gen := &fakeGenerator{out: ai.Generation{Text: weekMarkdown}}
	h := newHarness(readyConfig(), newFakeBackend(twoNotes()...), gen, fixedID("s-dup"))

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
		}(i)
	}
	wg.Wait()

	first, second := results[0], results[1]
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 2, h.backend.inserts)
	assert.Len(t, h.backend.stories, 1)
	assert.Len(t, h.blobs.objects, 1)
}

func TestCompileBadRangeNeverReachesStore(t *testing.T) {
	gen := &fakeGenerator{out: ai.Generation{Text: weekMarkdown}}
	h := newHarness(readyConfig(), newFakeBackend(twoNotes()...), gen)

	bodies := []string{
		`{"from":"2024-6-1","to":"2024-06-07"}`,
		`{"from":"2024-06-01"}`,
		`{"from":"2024-06-01","to":"June 7"}`,
		`{"from":20240601,"to":"2024-06-07"}`,
		`{}`,
		`not json`,
		``,
		`[1,2]`,
	}
	for _, body := range bodies {
		w := h.post(body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Bad range: 'from' and 'to' must be YYYY-MM-DD"}`, w.Body.String(), body)
	}
	assert.Empty(t, h.backend.queries)
	assert.Empty(t, gen.prompts)
}

func TestCompileRejectsNonStringStyle(t *testing.T) {
	h := newHarness(readyConfig(), newFakeBackend(twoNotes()...), &fakeGenerator{})

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07","style":5}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid 'style': expected a string"}`, w.Body.String())
}

func TestCompileMatchesKeysExactly(t *testing.T) {
	gen := &fakeGenerator{out: ai.Generation{Text: weekMarkdown}}
	h := newHarness(readyConfig(), newFakeBackend(twoNotes()...), gen, fixedID("s-k"))

	w := h.post(`{"FROM":"2024-06-01","To":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Bad range: 'from' and 'to' must be YYYY-MM-DD"}`, w.Body.String())

	w = h.post(`{"from":"2024-06-01","to":"2024-06-07","Style":"Noir","TITLE":"Ignored"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cozy", h.backend.stories["s-k"].Style)
	assert.Equal(t, "My Week", h.backend.stories["s-k"].Title)
}

func TestCompileUnreadableBodyIsBadRange(t *testing.T) {
	h := newHarness(readyConfig(), newFakeBackend(twoNotes()...), &fakeGenerator{})

	req := httptest.NewRequest(http.MethodPost, Path, iotest.ErrReader(errors.New("connection reset")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer user-jwt")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Bad range: 'from' and 'to' must be YYYY-MM-DD"}`, w.Body.String())
	assert.Empty(t, h.backend.queries)
}

func TestCompileEmptyRangeSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{out: ai.Generation{Text: weekMarkdown}}
	h := newHarness(readyConfig(), newFakeBackend(), gen)

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"No entries in range"}`, w.Body.String())
	assert.Empty(t, gen.prompts)
	assert.Empty(t, h.blobs.objects)
}

func TestCompileUnauthorized(t *testing.T) {
	backend := newFakeBackend(twoNotes()...)
	h := newHarness(readyConfig(), backend, &fakeGenerator{})

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	backend.authErr = errors.New("network down")
	w = h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, backend.queries)
}

func TestCompileConfigurationErrors(t *testing.T) {
	cfg := readyConfig()
	cfg.Supabase.URL = ""
	h := newHarness(cfg, newFakeBackend(twoNotes()...), &fakeGenerator{})
	w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Missing Supabase envs"}`, w.Body.String())

	cfg = readyConfig()
	cfg.Generation.APIKey = ""
	h = newHarness(cfg, newFakeBackend(twoNotes()...), &fakeGenerator{})
	w = h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Missing OPENAI_API_KEY"}`, w.Body.String())
}

func TestCompileFetchFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = &platform.Error{Message: "permission denied for table one_liners"}
	h := newHarness(readyConfig(), backend, &fakeGenerator{})

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Fetch one_liners failed: permission denied for table one_liners"}`, w.Body.String())
}

func TestCompileUpstreamFailures(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ai.UpstreamError{Provider: "OpenAI", Status: 429, Body: `{"error":"slow down"}`}, `OpenAI 429: {"error":"slow down"}`},
		{ai.ErrEmptyGeneration, "Empty generation"},
	}
	for _, tc := range cases {
		backend := newFakeBackend(twoNotes()...)
		h := newHarness(readyConfig(), backend, &fakeGenerator{err: tc.err})

		w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.want, body["error"])
		assert.Empty(t, h.blobs.objects)
		assert.Zero(t, backend.inserts)
	}
}

func TestCompileUploadFailure(t *testing.T) {
	backend := newFakeBackend(twoNotes()...)
	h := newHarness(readyConfig(), backend, &fakeGenerator{out: ai.Generation{Text: weekMarkdown}})
	h.blobs.err = errors.New("Bucket not found")

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Upload failed: Bucket not found"}`, w.Body.String())
	assert.Zero(t, backend.inserts)
}

func TestCompileInsertFailure(t *testing.T) {
	backend := newFakeBackend(twoNotes()...)
	backend.insertFn = func(models.Story) error { return &platform.Error{Code: "23502", Message: "null value in column \"title\""} }
	h := newHarness(readyConfig(), backend, &fakeGenerator{out: ai.Generation{Text: weekMarkdown}})

	w := h.post(`{"from":"2024-06-01","to":"2024-06-07"}`, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Insert story failed: null value in column \"title\""}`, w.Body.String())
}

func TestBuildDigest(t *testing.T) {
	assert.Equal(t, "- (2024-06-01) Rain\n- (2024-06-02) Sun", BuildDigest(twoNotes()))
	assert.Equal(t, "- (2024-06-03) ", BuildDigest([]platform.DayNote{{Day: "2024-06-03"}}))
	assert.Equal(t, "- (2024-01-01) Walked the dog\n- (2024-01-02) Read a book", BuildDigest([]platform.DayNote{
		{Day: "2024-01-01", Text: "  Walked the dog\n"},
		{Day: "2024-01-02", Text: "Read a book"},
	}))
	assert.Equal(t, "", BuildDigest(nil))
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "My Week", DeriveTitle(nil, weekMarkdown))
	assert.Equal(t, "Later Heading", DeriveTitle(nil, "intro line\n#Later Heading\n# Second"))
	assert.Equal(t, "Untitled", DeriveTitle(nil, "no headings here"))
	assert.Equal(t, "Untitled", DeriveTitle(nil, ""))

	empty := ""
	assert.Equal(t, "", DeriveTitle(&empty, weekMarkdown))

	long := "# " + strings.Repeat("é", 200)
	got := DeriveTitle(nil, long)
	assert.Equal(t, 180, len([]rune(got)))

	override := strings.Repeat("x", 200)
	assert.Equal(t, strings.Repeat("x", 180), DeriveTitle(&override, weekMarkdown))
}

func TestEstimateCostCents(t *testing.T) {
	assert.Equal(t, int64(0), EstimateCostCents(0, 0.01))
	assert.Equal(t, int64(1), EstimateCostCents(1, 0.01))
	assert.Equal(t, int64(1), EstimateCostCents(100, 0.01))
	assert.Equal(t, int64(2), EstimateCostCents(101, 0.01))
	assert.Equal(t, int64(0), EstimateCostCents(-50, 0.01))
}

func TestContentHashIsStable(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHash(""))
	assert.Equal(t, ContentHash(weekMarkdown), ContentHash(weekMarkdown))
	assert.NotEqual(t, ContentHash(weekMarkdown), ContentHash(weekMarkdown+" "))
}
