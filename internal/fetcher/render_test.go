package fetcher

import (
	"net/http"
	"testing"

	"github.com/chromedp/cdproto/network"
)

func TestDocumentStatus(t *testing.T) {
	t.Parallel()

	t.Run("no document response reports 200", func(t *testing.T) {
		t.Parallel()

		d := &documentStatus{}
		if got := d.code(); got != http.StatusOK {
			t.Errorf("expected 200, got %d", got)
		}
	})

	t.Run("first document response wins", func(t *testing.T) {
		t.Parallel()

		d := &documentStatus{}
		d.observe(&network.EventResponseReceived{
			Type:     network.ResourceTypeScript,
			Response: &network.Response{Status: 500},
		})
		d.observe(&network.EventResponseReceived{
			Type:     network.ResourceTypeDocument,
			Response: &network.Response{Status: http.StatusNotFound},
		})
		d.observe(&network.EventResponseReceived{
			Type:     network.ResourceTypeDocument,
			Response: &network.Response{Status: http.StatusOK},
		})
		d.observe(&network.EventLoadingFinished{})
		if got := d.code(); got != http.StatusNotFound {
			t.Errorf("expected 404, got %d", got)
		}
	})

	t.Run("missing response is ignored", func(t *testing.T) {
		t.Parallel()

		d := &documentStatus{}
		d.observe(&network.EventResponseReceived{Type: network.ResourceTypeDocument})
		if got := d.code(); got != http.StatusOK {
			t.Errorf("expected 200, got %d", got)
		}
	})
}
