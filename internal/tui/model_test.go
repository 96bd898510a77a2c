package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avenn/resonance/internal/artifact"
	"github.com/avenn/resonance/internal/echo"
	"github.com/avenn/resonance/internal/session"
)

type fakeCurator struct {
	result *echo.Result
	err    error
}

func (f fakeCurator) Curate(context.Context, string) (*echo.Result, error) {
	return f.result, f.err
}

func (f fakeCurator) Name() string { return "fake" }

func curatedFixture() *echo.Result {
	return &echo.Result{
		ThematicKey: "Solitude",
		ColorHex:    "#A8DADC",
		Echoes: []echo.Item{
			{Type: "poem", Title: "Wild Geese", Creator: "Mary Oliver", Year: "1986", Content: "You do not have to be good."},
		},
		CommunityInsight: "Solitude and loneliness are not the same thing.",
		SearchQuery:      "Wild Geese Mary Oliver poem",
	}
}

func newTestModel(t *testing.T) (*model, *session.Store) {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	synth, err := artifact.New(artifact.Config{
		BaseURL:  "https://image.invalid",
		CacheDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("artifact.New: %v", err)
	}
	m := New(Config{
		Curator:  fakeCurator{result: curatedFixture()},
		Synth:    synth,
		Sessions: store,
	}).(*model)
	return m, store
}

func pressEnter(m *model) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func pressKey(m *model, key string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return cmd
}

func TestEmptyInputDoesNotSubmit(t *testing.T) {
	m, _ := newTestModel(t)
	m.feelingInput.SetValue("   ")

	pressEnter(m)

	if m.curating {
		t.Fatal("blank input should not start curation")
	}
	if m.stage != stageInput {
		t.Fatalf("stage changed on blank input: %v", m.stage)
	}
	if m.errorMessage != "" {
		t.Fatalf("blank input should stay silent, got %q", m.errorMessage)
	}
}

func TestSubmitMovesToResultAndPersists(t *testing.T) {
	m, store := newTestModel(t)
	m.feelingInput.SetValue("quietly hopeful")

	if cmd := pressEnter(m); cmd == nil {
		t.Fatal("submit should start a curation job")
	}
	if !m.curating {
		t.Fatal("submit should mark curation in flight")
	}

	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})

	if m.stage != stageResult {
		t.Fatalf("stage = %v, want stageResult", m.stage)
	}
	if m.result == nil || m.result.ThematicKey != "Solitude" {
		t.Fatalf("result not stored: %+v", m.result)
	}

	snapshot, err := store.Load()
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot == nil {
		t.Fatal("curation success should persist a snapshot")
	}
	if snapshot.Input != "quietly hopeful" {
		t.Fatalf("snapshot input = %q", snapshot.Input)
	}
	if snapshot.View != session.ViewResult {
		t.Fatalf("snapshot view = %q", snapshot.View)
	}
}

func TestCurationFailureShowsGenericMessage(t *testing.T) {
	m, _ := newTestModel(t)
	m.config.Curator = fakeCurator{err: errors.New("http 500: backend exploded")}
	m.feelingInput.SetValue("adrift")

	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, err: errors.New("http 500: backend exploded")})

	if m.stage != stageInput {
		t.Fatalf("stage = %v, want stageInput", m.stage)
	}
	if m.errorMessage != curateFailedMsg {
		t.Fatalf("error message = %q, want the generic one", m.errorMessage)
	}
	if strings.Contains(m.View(), "backend exploded") {
		t.Fatal("underlying error leaked into the view")
	}
}

func TestReshuffleFailureRetainsResult(t *testing.T) {
	m, _ := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})

	if cmd := pressKey(m, "r"); cmd == nil {
		t.Fatal("reshuffle should start a curation job")
	}
	m.Update(curateResultMsg{gen: m.curateGen, err: errors.New("timeout")})

	if m.stage != stageResult {
		t.Fatalf("stage = %v, want stageResult after failed reshuffle", m.stage)
	}
	if m.result == nil {
		t.Fatal("failed reshuffle should keep the previous echoes")
	}
	if m.errorMessage != curateFailedMsg {
		t.Fatalf("error message = %q", m.errorMessage)
	}
}

func TestSynthesisFlowReachesArtifact(t *testing.T) {
	m, store := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})

	if cmd := pressEnter(m); cmd == nil {
		t.Fatal("enter on the result screen should start synthesis")
	}
	if m.stage != stageSynthesizing {
		t.Fatalf("stage = %v, want stageSynthesizing", m.stage)
	}

	url := "https://image.invalid/prompt/solitude?width=1024&height=1024&nologo=true"
	m.Update(synthesisResultMsg{gen: m.synthGen, url: url})

	if m.stage != stageArtifact {
		t.Fatalf("stage = %v, want stageArtifact", m.stage)
	}
	if m.artifactURL != url {
		t.Fatalf("artifact url = %q", m.artifactURL)
	}

	snapshot, err := store.Load()
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot == nil || snapshot.View != session.ViewArtifact || snapshot.ArtifactURL != url {
		t.Fatalf("artifact snapshot not persisted: %+v", snapshot)
	}
}

func TestSynthesisFailureReturnsToResult(t *testing.T) {
	m, _ := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})
	pressEnter(m)

	m.Update(synthesisResultMsg{gen: m.synthGen, err: errors.New("image service 503")})

	if m.stage != stageResult {
		t.Fatalf("stage = %v, want stageResult", m.stage)
	}
	if m.result == nil {
		t.Fatal("echoes should survive a failed synthesis")
	}
	if m.errorMessage != synthFailedMsg {
		t.Fatalf("error message = %q", m.errorMessage)
	}
}

func TestStaleResultsAreIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	staleGen := m.curateGen

	// A reset supersedes the in-flight curation.
	m.reset()
	m.Update(curateResultMsg{gen: staleGen, result: curatedFixture()})

	if m.stage != stageInput {
		t.Fatalf("stale curation moved the stage: %v", m.stage)
	}
	if m.result != nil {
		t.Fatal("stale curation result should be dropped")
	}

	m.Update(synthesisResultMsg{gen: m.synthGen - 1, url: "https://image.invalid/x"})
	if m.artifactURL != "" {
		t.Fatal("stale synthesis result should be dropped")
	}
}

func TestResetClearsEverything(t *testing.T) {
	m, store := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	if m.stage != stageInput {
		t.Fatalf("stage = %v, want stageInput", m.stage)
	}
	if m.result != nil || m.artifactURL != "" || m.feeling != "" {
		t.Fatal("reset left session state behind")
	}
	if m.feelingInput.Value() != "" {
		t.Fatalf("input not cleared: %q", m.feelingInput.Value())
	}
	snapshot, err := store.Load()
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("reset should clear the snapshot, got %+v", snapshot)
	}
}

func TestBackFromResultKeepsResult(t *testing.T) {
	m, store := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.stage != stageInput {
		t.Fatalf("stage = %v, want stageInput", m.stage)
	}
	if m.result == nil {
		t.Fatal("stepping back should keep the echoes")
	}
	snapshot, err := store.Load()
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot == nil || snapshot.View != session.ViewInput || snapshot.Result == nil {
		t.Fatalf("back transition not persisted: %+v", snapshot)
	}
}

func TestEscOnInputReturnsToKeptResult(t *testing.T) {
	m, _ := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.stage != stageInput {
		t.Fatalf("stage = %v, want stageInput", m.stage)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.stage != stageResult {
		t.Fatalf("stage = %v, want stageResult", m.stage)
	}
	if cmd != nil {
		if _, quitting := cmd().(tea.QuitMsg); quitting {
			t.Fatal("esc with a kept result should not quit the program")
		}
	}
	if m.result == nil {
		t.Fatal("returning to the result screen lost the echoes")
	}
}

func TestEscOnEmptyInputQuits(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if cmd == nil {
		t.Fatal("esc with nothing to return to should quit")
	}
	if _, quitting := cmd().(tea.QuitMsg); !quitting {
		t.Fatal("expected a quit command")
	}
}

func TestSynthesizeIgnoredDuringReshuffle(t *testing.T) {
	m, _ := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})

	if cmd := pressKey(m, "r"); cmd == nil {
		t.Fatal("reshuffle should start a curation job")
	}
	if cmd := pressEnter(m); cmd != nil {
		t.Fatal("synthesize should be ignored while a reshuffle is in flight")
	}
	if m.stage != stageResult {
		t.Fatalf("stage = %v, want stageResult", m.stage)
	}

	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})
	if m.stage != stageResult {
		t.Fatalf("stage = %v after reshuffle landed, want stageResult", m.stage)
	}
	if m.artifactURL != "" || m.errorMessage != "" {
		t.Fatalf("nothing should have synthesized: url=%q err=%q", m.artifactURL, m.errorMessage)
	}

	// Now that the reshuffle settled, synthesis proceeds normally.
	if cmd := pressEnter(m); cmd == nil {
		t.Fatal("synthesize should start once the reshuffle settled")
	}
	if m.stage != stageSynthesizing {
		t.Fatalf("stage = %v, want stageSynthesizing", m.stage)
	}
}

func TestJobStatusSurfacedInView(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(jobSignalMsg{Snapshot: jobSnapshot{
		ID:     "curate-1",
		Kind:   jobKindCurate,
		Status: jobStatusRunning,
	}})

	if !strings.Contains(m.View(), "curate · running") {
		t.Fatal("running job missing from the status line")
	}
}

func TestRestoreResumesArtifactView(t *testing.T) {
	url := "https://image.invalid/prompt/solitude"
	restored := New(Config{
		Curator: fakeCurator{},
		Restored: &session.Snapshot{
			Input:       "adrift",
			View:        session.ViewArtifact,
			Result:      curatedFixture(),
			ArtifactURL: url,
		},
	}).(*model)

	if restored.stage != stageArtifact {
		t.Fatalf("stage = %v, want stageArtifact", restored.stage)
	}
	if restored.artifactURL != url {
		t.Fatalf("artifact url = %q", restored.artifactURL)
	}
	if restored.feelingInput.Value() != "adrift" {
		t.Fatalf("input not restored: %q", restored.feelingInput.Value())
	}
}

func TestRestoreDegradesWithoutArtifactURL(t *testing.T) {
	restored := New(Config{
		Curator: fakeCurator{},
		Restored: &session.Snapshot{
			Input:  "adrift",
			View:   session.ViewArtifact,
			Result: curatedFixture(),
		},
	}).(*model)

	if restored.stage != stageResult {
		t.Fatalf("stage = %v, want stageResult", restored.stage)
	}
}

func TestRestoreDegradesWithoutResult(t *testing.T) {
	restored := New(Config{
		Curator: fakeCurator{},
		Restored: &session.Snapshot{
			Input: "adrift",
			View:  session.ViewResult,
		},
	}).(*model)

	if restored.stage != stageInput {
		t.Fatalf("stage = %v, want stageInput", restored.stage)
	}
}

func TestResultViewShowsEchoesAndInsight(t *testing.T) {
	m, _ := newTestModel(t)
	m.feelingInput.SetValue("adrift")
	pressEnter(m)
	m.Update(curateResultMsg{gen: m.curateGen, result: curatedFixture()})

	view := m.View()
	if !strings.Contains(view, "SOLITUDE") {
		t.Fatal("thematic key missing from view")
	}
	if !strings.Contains(view, "Wild Geese") {
		t.Fatal("echo title missing from view")
	}
	if !strings.Contains(view, "Solitude and loneliness") {
		t.Fatal("community insight missing from view")
	}
	if !strings.Contains(view, "google.com/search") {
		t.Fatal("search link missing from view")
	}
}

func TestExportResultMessages(t *testing.T) {
	m, _ := newTestModel(t)
	m.result = curatedFixture()
	m.stage = stageArtifact
	m.exporting = true

	m.Update(exportResultMsg{path: "/tmp/resonance-solitude.png"})
	if m.exporting {
		t.Fatal("export flag not cleared")
	}
	if !strings.Contains(m.infoMessage, "resonance-solitude.png") {
		t.Fatalf("export path missing from message: %q", m.infoMessage)
	}

	m.exporting = true
	m.Update(exportResultMsg{path: "/tmp/resonance-solitude.png", fallback: true})
	if !strings.Contains(m.infoMessage, "artwork itself") {
		t.Fatalf("fallback not surfaced: %q", m.infoMessage)
	}
}
