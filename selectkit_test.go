package selectkit

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-selectkit/pkg/record"
	"github.com/goliatone/go-selectkit/pkg/renderers/vanilla"
	"github.com/goliatone/go-selectkit/pkg/selectsingle"
)

func TestRecordControllerRendersHTML(t *testing.T) {
	ctx := context.Background()
	svc := selectsingle.SyncService(func() []record.Record {
		return []record.Record{
			{"code": "nl", "title": "Netherlands"},
			{"code": "pt", "title": "Portugal"},
		}
	})

	ctrl := NewRecordController(svc, record.Mapping{Value: "code", Label: "title"},
		selectsingle.WithValue[record.Record, string]("pt"),
	)
	if err := ctrl.Mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	t.Cleanup(ctrl.Unmount)
	ctrl.Wait()

	html, err := RenderHTML(ctx, ctrl.View(), vanilla.WithIDGenerator(func() string { return "country" }))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, fragment := range []string{
		`<select id="country"`,
		`<option value="nl">Netherlands</option>`,
		`<option value="pt" selected>Portugal</option>`,
	} {
		if !strings.Contains(string(html), fragment) {
			t.Fatalf("expected %q in\n%s", fragment, html)
		}
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "templates/select.tmpl"); err != nil {
		t.Fatalf("expected embedded select template: %v", err)
	}
}
