package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"slate/internal/config"
	"slate/internal/host"
	"slate/internal/platform"
	"slate/internal/sequence"
)

type fakeRenderer struct {
	rendered []int
	err      error
}

func (f *fakeRenderer) ForceItem(ctx context.Context, index int) error {
	f.rendered = append(f.rendered, index)
	return f.err
}

type appliedModule struct {
	index    int
	template string
}

type fakeModules struct {
	templates []string
	applied   []appliedModule
}

func (f *fakeModules) OutputModuleTemplates(ctx context.Context) ([]string, error) {
	return f.templates, nil
}

func (f *fakeModules) ApplyOutputModule(ctx context.Context, index int, template string) error {
	f.applied = append(f.applied, appliedModule{index: index, template: template})
	return nil
}

type fakePlatform struct {
	configured bool
	versionID  int
	publishID  int

	versions   []platform.CreateVersionRequest
	media      []string
	thumbnails []string
	publishes  []platform.RegisterPublishRequest
}

func (f *fakePlatform) Configured() bool { return f.configured }

func (f *fakePlatform) ResolveContext(ctx context.Context, documentPath string) (*platform.Context, error) {
	return nil, nil
}

func (f *fakePlatform) CreateVersion(ctx context.Context, req platform.CreateVersionRequest) (*platform.Version, error) {
	f.versions = append(f.versions, req)
	f.versionID++
	return &platform.Version{ID: f.versionID, Code: req.Code}, nil
}

func (f *fakePlatform) UploadMedia(ctx context.Context, versionID int, filePath string) error {
	f.media = append(f.media, filePath)
	return nil
}

func (f *fakePlatform) UploadThumbnail(ctx context.Context, entityType string, entityID int, filePath string) error {
	f.thumbnails = append(f.thumbnails, filePath)
	return nil
}

func (f *fakePlatform) RegisterPublish(ctx context.Context, req platform.RegisterPublishRequest) (*platform.PublishRecord, error) {
	f.publishes = append(f.publishes, req)
	f.publishID++
	return &platform.PublishRecord{ID: f.publishID, Name: req.Name, Version: req.Version}, nil
}

// renderingItem builds a session tree with one rendering child for a queue
// item snapshot.
func renderingItem(queueItem host.QueueItem, documentPath string) *Item {
	root := NewItem("session", "Session", filepath.Base(documentPath))
	root.SetProperty(PropDocumentPath, documentPath)
	itemType, displayType := "session.rendering.movie", "Rendered Movie"
	for _, path := range queueItem.RenderPaths {
		if sequence.HasToken(path) {
			itemType, displayType = "session.rendering.sequence", "Rendered Image Sequence"
		}
	}
	child := root.CreateItem(itemType, displayType, queueItem.CompName)
	child.SetProperty(PropQueueItem, queueItem)
	child.SetProperty(PropRenderPaths, queueItem.RenderPaths)
	child.SetProperty(PropNeedsOutputPath, len(queueItem.RenderPaths) == 0)
	child.SetProperty(PropRenderOnPublish, queueItem.Status != host.StatusDone)
	return child
}

func TestRenderPluginAccept(t *testing.T) {
	plugin := NewRenderPlugin(&fakeRenderer{}, &fakeModules{}, config.Publish{}, nil)
	item := renderingItem(host.QueueItem{Index: 1, Status: host.StatusQueued, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	if got := plugin.Accept(context.Background(), item); got != FullyAccepted {
		t.Fatalf("queued item: %v", got)
	}
	done := renderingItem(host.QueueItem{Index: 1, Status: host.StatusDone, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	if got := plugin.Accept(context.Background(), done); got != Rejected {
		t.Fatalf("already rendered item: %v", got)
	}
}

func TestRenderPluginValidateMissingOutputPath(t *testing.T) {
	plugin := NewRenderPlugin(&fakeRenderer{}, &fakeModules{}, config.Publish{}, nil)
	item := renderingItem(host.QueueItem{Index: 1, Status: host.StatusQueued}, "/w/a.aep")
	issues := plugin.Validate(context.Background(), item)
	if len(issues) != 1 || !issues[0].Blocking() {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestRenderPluginValidateOutputModule(t *testing.T) {
	queueItem := host.QueueItem{
		Index:         1,
		Status:        host.StatusQueued,
		RenderPaths:   []string{"/r/a.mov"},
		OutputModules: []string{"Draft"},
	}
	modules := &fakeModules{templates: []string{"Draft", "Studio Movie"}}
	cfg := config.Publish{MovieOutputModule: "Studio Movie", CheckOutputModule: true}

	plugin := NewRenderPlugin(&fakeRenderer{}, modules, cfg, nil)
	issues := plugin.Validate(context.Background(), renderingItem(queueItem, "/w/a.aep"))
	if len(issues) != 1 || !issues[0].Blocking() {
		t.Fatalf("issues = %+v", issues)
	}
	if issues[0].Remediation == nil {
		t.Fatal("module mismatch should offer a remediation")
	}
	if err := issues[0].Remediation.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(modules.applied) != 1 || modules.applied[0].template != "Studio Movie" {
		t.Fatalf("applied = %+v", modules.applied)
	}

	// With force on, the mismatch downgrades to a warning.
	cfg.ForceOutputModule = true
	plugin = NewRenderPlugin(&fakeRenderer{}, modules, cfg, nil)
	issues = plugin.Validate(context.Background(), renderingItem(queueItem, "/w/a.aep"))
	if len(issues) != 1 || issues[0].Blocking() {
		t.Fatalf("forced issues = %+v", issues)
	}
}

func TestRenderPluginValidateUnknownTemplate(t *testing.T) {
	queueItem := host.QueueItem{Index: 1, Status: host.StatusQueued, RenderPaths: []string{"/r/a.mov"}}
	modules := &fakeModules{templates: []string{"Draft"}}
	cfg := config.Publish{MovieOutputModule: "Studio Movie", CheckOutputModule: true}
	plugin := NewRenderPlugin(&fakeRenderer{}, modules, cfg, nil)
	issues := plugin.Validate(context.Background(), renderingItem(queueItem, "/w/a.aep"))
	if len(issues) != 1 || !issues[0].Blocking() {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestRenderPluginPublish(t *testing.T) {
	queueItem := host.QueueItem{
		Index:         3,
		Status:        host.StatusQueued,
		RenderPaths:   []string{"/r/a.mov"},
		OutputModules: []string{"Draft"},
	}
	renderer := &fakeRenderer{}
	modules := &fakeModules{templates: []string{"Draft", "Studio Movie"}}
	cfg := config.Publish{MovieOutputModule: "Studio Movie", CheckOutputModule: true, ForceOutputModule: true}
	plugin := NewRenderPlugin(renderer, modules, cfg, nil)

	item := renderingItem(queueItem, "/w/a.aep")
	if err := plugin.Publish(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	if len(modules.applied) != 1 || modules.applied[0] != (appliedModule{index: 3, template: "Studio Movie"}) {
		t.Fatalf("applied = %+v", modules.applied)
	}
	if len(renderer.rendered) != 1 || renderer.rendered[0] != 3 {
		t.Fatalf("rendered = %v", renderer.rendered)
	}
	if item.BoolProperty(PropRenderOnPublish) {
		t.Fatal("render flag must clear after a successful pass")
	}
}

func TestRenderPluginPublishFailure(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("host crashed")}
	plugin := NewRenderPlugin(renderer, &fakeModules{}, config.Publish{}, nil)
	item := renderingItem(host.QueueItem{Index: 1, Status: host.StatusQueued, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	if err := plugin.Publish(context.Background(), item); err == nil {
		t.Fatal("expected error")
	}
	if !item.BoolProperty(PropRenderOnPublish) {
		t.Fatal("render flag must survive a failed pass")
	}
}

func copyConfig(dir string) config.Publish {
	return config.Publish{
		WorkTemplate:     filepath.Join(dir, "work", "{shot}", "comp_v{version}.aep"),
		MovieTemplate:    filepath.Join(dir, "pub", "{shot}", "{name}_v{version}.mov"),
		SequenceTemplate: filepath.Join(dir, "pub", "{shot}", "{name}", "{name}.{SEQ}.exr"),
	}
}

func TestCopyPluginPublishMovie(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "renders", "main.mov")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("movie data"), 0o644); err != nil {
		t.Fatal(err)
	}

	queueItem := host.QueueItem{Index: 1, CompName: "Main Comp", Status: host.StatusDone, RenderPaths: []string{src}}
	item := renderingItem(queueItem, filepath.Join(dir, "work", "sh010", "comp_v003.aep"))
	plugin := NewCopyPlugin(copyConfig(dir), nil)

	if got := plugin.Accept(context.Background(), item); got != FullyAccepted {
		t.Fatalf("accept = %v", got)
	}
	if issues := plugin.Validate(context.Background(), item); len(issues) != 0 {
		t.Fatalf("issues = %+v", issues)
	}
	if err := plugin.Publish(context.Background(), item); err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(dir, "pub", "sh010", "main_comp_v003.mov")
	if got := item.StringProperty(PropPublishPath); got != want {
		t.Fatalf("publish path = %q, want %q", got, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "movie data" {
		t.Fatalf("copied content = %q", data)
	}
	version, _ := item.Property(PropPublishVersion)
	if version != 3 {
		t.Fatalf("version = %v", version)
	}
}

func TestCopyPluginPublishSequence(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "renders", "main.[####].exr")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	for frame := 1; frame <= 3; frame++ {
		path := sequence.FramePath(src, frame)
		if err := os.WriteFile(path, []byte(fmt.Sprintf("frame %d", frame)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	queueItem := host.QueueItem{
		Index:            1,
		CompName:         "Main Comp",
		Status:           host.StatusDone,
		RenderPaths:      []string{src},
		TimeSpanStart:    1.0,
		TimeSpanDuration: 3.0,
		FrameDuration:    1.0,
	}
	item := renderingItem(queueItem, filepath.Join(dir, "work", "sh010", "comp_v002.aep"))
	plugin := NewCopyPlugin(copyConfig(dir), nil)

	if err := plugin.Publish(context.Background(), item); err != nil {
		t.Fatal(err)
	}

	dest := item.StringProperty(PropPublishPath)
	if !sequence.HasToken(dest) {
		t.Fatalf("sequence publish path %q lost its frame token", dest)
	}
	for frame := 1; frame <= 3; frame++ {
		path := sequence.FramePath(dest, frame)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != fmt.Sprintf("frame %d", frame) {
			t.Fatalf("frame %d content = %q", frame, data)
		}
	}
}

func TestCopyPluginValidateWorkMismatch(t *testing.T) {
	dir := t.TempDir()
	queueItem := host.QueueItem{Index: 1, Status: host.StatusDone, RenderPaths: []string{"/r/a.mov"}}
	item := renderingItem(queueItem, filepath.Join(dir, "elsewhere", "oddly_named.aep"))
	plugin := NewCopyPlugin(copyConfig(dir), nil)

	issues := plugin.Validate(context.Background(), item)
	if len(issues) != 1 || !issues[0].Blocking() {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestCopyPluginRejectsWithoutTemplate(t *testing.T) {
	item := renderingItem(host.QueueItem{Index: 1, Status: host.StatusDone, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	plugin := NewCopyPlugin(config.Publish{}, nil)
	if got := plugin.Accept(context.Background(), item); got != Rejected {
		t.Fatalf("accept = %v", got)
	}
}

func TestUploadPluginAccept(t *testing.T) {
	service := &fakePlatform{configured: true}
	plugin := NewUploadPlugin(service, nil)

	movie := renderingItem(host.QueueItem{Index: 1, Status: host.StatusDone, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	if got := plugin.Accept(context.Background(), movie); got != FullyAccepted {
		t.Fatalf("movie accept = %v", got)
	}

	seq := renderingItem(host.QueueItem{Index: 2, Status: host.StatusDone, RenderPaths: []string{"/r/a.[####].exr"}}, "/w/a.aep")
	if got := plugin.Accept(context.Background(), seq); got != PartiallyAccepted {
		t.Fatalf("sequence accept = %v", got)
	}

	unconfigured := NewUploadPlugin(&fakePlatform{}, nil)
	if got := unconfigured.Accept(context.Background(), movie); got != Rejected {
		t.Fatalf("unconfigured accept = %v", got)
	}
}

func TestUploadPluginPublishMovie(t *testing.T) {
	service := &fakePlatform{configured: true}
	plugin := NewUploadPlugin(service, nil)

	item := renderingItem(host.QueueItem{Index: 1, CompName: "Main Comp", Status: host.StatusDone, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	item.Parent().SetProperty(PropContext, platform.Context{EntityType: "Shot", EntityID: 7})
	item.SetProperty(PropPublishVersion, 4)

	if err := plugin.Publish(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	if len(service.versions) != 1 {
		t.Fatalf("versions = %+v", service.versions)
	}
	req := service.versions[0]
	if req.Code != "main_comp_v004" || req.PathToMovie != "/r/a.mov" || req.Context.EntityID != 7 {
		t.Fatalf("request = %+v", req)
	}
	if len(service.media) != 1 || service.media[0] != "/r/a.mov" {
		t.Fatalf("media = %v", service.media)
	}
	id, _ := item.Property(PropVersionID)
	if id != 1 {
		t.Fatalf("version id = %v", id)
	}
}

func TestUploadPluginPublishSequence(t *testing.T) {
	service := &fakePlatform{configured: true}
	plugin := NewUploadPlugin(service, nil)

	queueItem := host.QueueItem{
		Index:            1,
		CompName:         "Main Comp",
		Status:           host.StatusDone,
		RenderPaths:      []string{"/r/main.[####].exr"},
		TimeSpanStart:    10.0,
		TimeSpanDuration: 5.0,
		FrameDuration:    1.0,
	}
	item := renderingItem(queueItem, "/w/a.aep")
	item.Parent().SetProperty(PropContext, platform.Context{EntityType: "Shot", EntityID: 7})

	if err := plugin.Publish(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	req := service.versions[0]
	if req.FirstFrame != 10 || req.LastFrame != 14 {
		t.Fatalf("frames = %d..%d", req.FirstFrame, req.LastFrame)
	}
	if len(service.media) != 1 || service.media[0] != "/r/main.0012.exr" {
		t.Fatalf("media = %v", service.media)
	}
}

func TestUploadPluginValidateNoContext(t *testing.T) {
	plugin := NewUploadPlugin(&fakePlatform{configured: true}, nil)
	item := renderingItem(host.QueueItem{Index: 1, Status: host.StatusDone, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	issues := plugin.Validate(context.Background(), item)
	if len(issues) != 1 || !issues[0].Blocking() {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestRegisterPluginSessionItem(t *testing.T) {
	service := &fakePlatform{configured: true}
	plugin := NewRegisterPlugin(service, nil)

	root := NewItem("session", "Session", "a.aep")
	root.SetProperty(PropDocumentPath, "/w/a.aep")
	root.SetProperty(PropContext, platform.Context{EntityType: "Shot", EntityID: 7})

	if got := plugin.Accept(context.Background(), root); got != FullyAccepted {
		t.Fatalf("accept = %v", got)
	}
	if err := plugin.Publish(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	req := service.publishes[0]
	if req.Path != "/w/a.aep" || req.PublishType != "Project File" {
		t.Fatalf("request = %+v", req)
	}
	id, _ := root.Property(PropPublishID)
	if id != 1 {
		t.Fatalf("publish id = %v", id)
	}
}

func TestRegisterPluginRenderingItem(t *testing.T) {
	service := &fakePlatform{configured: true}
	plugin := NewRegisterPlugin(service, nil)

	item := renderingItem(host.QueueItem{Index: 1, CompName: "Main Comp", Status: host.StatusDone, RenderPaths: []string{"/r/a.mov"}}, "/w/a.aep")
	item.Parent().SetProperty(PropContext, platform.Context{EntityType: "Shot", EntityID: 7})
	item.SetProperty(PropPublishPath, "/pub/sh010/main_comp_v003.mov")
	item.SetProperty(PropPublishVersion, 3)

	if err := plugin.Publish(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	req := service.publishes[0]
	if req.Path != "/pub/sh010/main_comp_v003.mov" || req.Version != 3 || req.PublishType != "Rendered Movie" {
		t.Fatalf("request = %+v", req)
	}
}

func TestRegisterPluginRejectsUnsavedSession(t *testing.T) {
	plugin := NewRegisterPlugin(&fakePlatform{configured: true}, nil)
	root := NewItem("session", "Session", "Untitled Project")
	root.SetProperty(PropDocumentPath, "")
	if got := plugin.Accept(context.Background(), root); got != Rejected {
		t.Fatalf("accept = %v", got)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Main Comp", "main_comp"},
		{"Shot 010 / Final!", "shot_010___final"},
		{"already_clean", "already_clean"},
	}
	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
