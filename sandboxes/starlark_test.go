package sandboxes

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/reusee/dscope"
	"port/logs"
	"port/protocols"
)

func newRuntime(t *testing.T, script string) *StarlarkRuntime {
	t.Helper()
	var runtime *StarlarkRuntime
	dscope.New(new(logs.Module)).Call(func(
		logger logs.Logger,
	) {
		runtime = NewStarlarkRuntime("test.star", []byte(script), "en", logger)
	})
	t.Cleanup(runtime.Close)
	return runtime
}

func initialised(t *testing.T, script string) *StarlarkRuntime {
	t.Helper()
	runtime := newRuntime(t, script)
	if err := runtime.Initialise(context.Background()); err != nil {
		t.Fatal(err)
	}
	return runtime
}

const flowScript = `
def process(session_id):
    log("session " + str(session_id))
    result = render_page(donation_page(
        "Twitter",
        file_input(translatable("choose a file", "kies een bestand"), "application/zip"),
        25,
    ))
    if result["kind"] != "string":
        render_page(end_page())
        return
    path = result["value"]
    content = read_file(path)
    donate("trace", json.encode([path, content]))
    answer = render_page(donation_page(
        "Twitter",
        confirm(translatable("sure?"), translatable("yes"), translatable("no")),
        50,
    ))
    render_page(end_page())
`

func TestFlow(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, flowScript)

	command, err := runtime.Start(ctx, 1700000000000)
	if err != nil {
		t.Fatal(err)
	}
	render, ok := command.(protocols.CommandUIRender)
	if !ok {
		t.Fatalf("got %T", command)
	}
	page, ok := render.Page.(protocols.PageDonation)
	if !ok {
		t.Fatalf("got %T", render.Page)
	}
	if page.Platform != "Twitter" {
		t.Fatalf("got %q", page.Platform)
	}
	if page.Footer.Progress != 25 {
		t.Fatalf("got %v", page.Footer.Progress)
	}
	input, ok := page.Body.(protocols.PromptFileInput)
	if !ok {
		t.Fatalf("got %T", page.Body)
	}
	if input.Description.Lookup("nl") != "kies een bestand" {
		t.Fatalf("got %q", input.Description.Lookup("nl"))
	}

	command, err = runtime.Resume(ctx, protocols.PayloadFile{
		Name: "export.zip",
		Data: []byte("file bytes"),
	})
	if err != nil {
		t.Fatal(err)
	}
	donate, ok := command.(protocols.CommandSystemDonate)
	if !ok {
		t.Fatalf("got %T", command)
	}
	if donate.Key != "trace" {
		t.Fatalf("got %q", donate.Key)
	}
	var trace []string
	if err := json.Unmarshal([]byte(donate.JSONString), &trace); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(trace[0], "/mnt/") || !strings.HasSuffix(trace[0], "/export.zip") {
		t.Fatalf("got %q", trace[0])
	}
	if trace[1] != "file bytes" {
		t.Fatalf("got %q", trace[1])
	}

	command, err = runtime.Resume(ctx, protocols.PayloadVoid{})
	if err != nil {
		t.Fatal(err)
	}
	render = command.(protocols.CommandUIRender)
	if _, ok := render.Page.(protocols.PageDonation); !ok {
		t.Fatalf("got %T", render.Page)
	}

	command, err = runtime.Resume(ctx, protocols.PayloadFalse{})
	if err != nil {
		t.Fatal(err)
	}
	render = command.(protocols.CommandUIRender)
	if _, ok := render.Page.(protocols.PageEnd); !ok {
		t.Fatalf("got %T", render.Page)
	}

	// script runs to completion
	command, err = runtime.Resume(ctx, protocols.PayloadVoid{})
	if err != nil {
		t.Fatal(err)
	}
	if command != nil {
		t.Fatalf("got %T", command)
	}
}

func TestDistinctMountPaths(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, `
def process(session_id):
    a = render_page(donation_page("X", file_input(translatable("f1"), "*"), 10))
    b = render_page(donation_page("X", file_input(translatable("f2"), "*"), 20))
    donate("paths", json.encode([a["value"], b["value"]]))
    render_page(end_page())
`)

	if _, err := runtime.Start(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := runtime.Resume(ctx, protocols.PayloadFile{
		Name: "export.zip",
		Data: []byte("one"),
	}); err != nil {
		t.Fatal(err)
	}
	command, err := runtime.Resume(ctx, protocols.PayloadFile{
		Name: "export.zip",
		Data: []byte("two"),
	})
	if err != nil {
		t.Fatal(err)
	}

	donate := command.(protocols.CommandSystemDonate)
	var paths []string
	if err := json.Unmarshal([]byte(donate.JSONString), &paths); err != nil {
		t.Fatal(err)
	}
	if paths[0] == paths[1] {
		t.Fatalf("mount paths collide: %q", paths[0])
	}
}

func TestZipEntries(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, `
def process(session_id):
    result = render_page(donation_page("X", file_input(translatable("f"), "application/zip"), 0))
    donate("entries", json.encode(zip_entries(result["value"])))
    render_page(end_page())
`)

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range []string{"tweets.js", "likes.js"} {
		w, err := writer.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte("{}")); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := runtime.Start(ctx, 1); err != nil {
		t.Fatal(err)
	}
	command, err := runtime.Resume(ctx, protocols.PayloadFile{
		Name: "export.zip",
		Data: buf.Bytes(),
	})
	if err != nil {
		t.Fatal(err)
	}
	donate := command.(protocols.CommandSystemDonate)
	var entries []string
	if err := json.Unmarshal([]byte(donate.JSONString), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0] != "tweets.js" || entries[1] != "likes.js" {
		t.Fatalf("got %v", entries)
	}
}

func TestConsentFormTables(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, `
def process(session_id):
    data = {
        "zeta": {"0": "a", "1": "b", "2": "sentinel"},
        "alpha": {"0": 1, "1": 2, "2": 0},
    }
    result = render_page(donation_page(
        "Twitter",
        consent_form(
            translatable("review your data"),
            translatable("donate?"),
            translatable("donate"),
            translatable("cancel"),
            [consent_table("twitter_tweets", translatable("Your tweets"), data)],
        ),
        100,
    ))
    render_page(end_page())
`)

	command, err := runtime.Start(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	page := command.(protocols.CommandUIRender).Page.(protocols.PageDonation)
	form, ok := page.Body.(protocols.PromptConsentForm)
	if !ok {
		t.Fatalf("got %T", page.Body)
	}
	if len(form.Tables) != 1 {
		t.Fatalf("got %d tables", len(form.Tables))
	}
	spec := form.Tables[0]
	if spec.ID != "twitter_tweets" {
		t.Fatalf("got %q", spec.ID)
	}
	// column insertion order survives the boundary crossing
	if spec.Data.Columns[0].Name != "zeta" || spec.Data.Columns[1].Name != "alpha" {
		t.Fatalf("got %v, %v", spec.Data.Columns[0].Name, spec.Data.Columns[1].Name)
	}
	if len(form.MetaTables) != 0 {
		t.Fatalf("got %d meta tables", len(form.MetaTables))
	}
}

func TestInitialiseNotIdempotent(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, flowScript)
	err := runtime.Initialise(ctx)
	if err == nil || !strings.Contains(err.Error(), "already initialised") {
		t.Fatalf("got %v", err)
	}
}

func TestStartBeforeInitialise(t *testing.T) {
	runtime := newRuntime(t, flowScript)
	_, err := runtime.Start(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "not initialised") {
		t.Fatalf("got %v", err)
	}
}

func TestResumeWithoutPendingCycle(t *testing.T) {
	runtime := initialised(t, flowScript)
	_, err := runtime.Resume(context.Background(), protocols.PayloadVoid{})
	if err == nil || !strings.Contains(err.Error(), "no cycle pending") {
		t.Fatalf("got %v", err)
	}
}

func TestStartTwice(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, flowScript)
	if _, err := runtime.Start(ctx, 1); err != nil {
		t.Fatal(err)
	}
	_, err := runtime.Start(ctx, 2)
	if err == nil || !strings.Contains(err.Error(), "already started") {
		t.Fatalf("got %v", err)
	}
}

func TestScriptWithoutProcess(t *testing.T) {
	runtime := newRuntime(t, `x = 1`)
	err := runtime.Initialise(context.Background())
	if err == nil || !strings.Contains(err.Error(), "must define process") {
		t.Fatalf("got %v", err)
	}
}

func TestMalformedPageFailsCycle(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, `
def process(session_id):
    render_page({"kind": "donation"})
`)
	_, err := runtime.Start(ctx, 1)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestScriptErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	runtime := initialised(t, `
def process(session_id):
    fail("inspection went sideways")
`)
	_, err := runtime.Start(ctx, 1)
	if err == nil || !strings.Contains(err.Error(), "inspection went sideways") {
		t.Fatalf("got %v", err)
	}
}

func TestClosedRuntime(t *testing.T) {
	runtime := newRuntime(t, flowScript)
	runtime.Close()
	runtime.Close() // idempotent
	err := runtime.Initialise(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sandbox closed") {
		t.Fatalf("got %v", err)
	}
}

func TestVirtualFS(t *testing.T) {
	fs := NewVirtualFS()
	a := fs.Mount("export.zip", []byte("a"))
	b := fs.Mount("export.zip", []byte("b"))
	if a == b {
		t.Fatalf("paths collide: %q", a)
	}
	data, err := fs.Read(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a" {
		t.Fatalf("got %q", data)
	}
	if _, err := fs.Read("/mnt/nope"); err == nil {
		t.Fatal("expected error")
	}
}
