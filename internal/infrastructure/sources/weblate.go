package sources

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

const sourceWeblate = "weblate"

// Weblate counts the translations of a component.
type Weblate struct {
	client *Client
	url    string
}

func NewWeblate(client *Client, translationsURL string) *Weblate {
	return &Weblate{client: client, url: translationsURL}
}

func (w *Weblate) Translations(ctx context.Context) (int, error) {
	body, err := w.client.Get(ctx, sourceWeblate, w.url, nil)
	if err != nil {
		return 0, err
	}
	return parseTranslations(body)
}

func parseTranslations(body []byte) (int, error) {
	if !gjson.ValidBytes(body) {
		return 0, malformed(sourceWeblate, "translations response is not valid JSON")
	}
	count := gjson.GetBytes(body, "count")
	if count.Type != gjson.Number {
		return 0, malformed(sourceWeblate, "missing count")
	}
	return int(count.Int()), nil
}

func malformed(source, format string, args ...any) error {
	return refresh.Malformed(source, fmt.Errorf(format, args...))
}
