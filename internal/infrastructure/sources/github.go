package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

const sourceGitHub = "github"

// RepoStats are the counters read from the GitHub repository API.
type RepoStats struct {
	Stargazers int
	Watchers   int
	Forks      int
}

// GitHub reads repository statistics from the API and the contributors
// count from the repository web page, which the API does not expose cheaply.
type GitHub struct {
	client *Client
	apiURL string
	webURL string
	repo   string
	token  string
}

func NewGitHub(client *Client, apiURL, webURL, repo, token string) *GitHub {
	return &GitHub{
		client: client,
		apiURL: strings.TrimRight(apiURL, "/"),
		webURL: strings.TrimRight(webURL, "/"),
		repo:   repo,
		token:  token,
	}
}

func (g *GitHub) RepoStats(ctx context.Context) (RepoStats, error) {
	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		header.Set("Authorization", "Bearer "+g.token)
	}
	body, err := g.client.Get(ctx, sourceGitHub, fmt.Sprintf("%s/repos/%s", g.apiURL, g.repo), header)
	if err != nil {
		return RepoStats{}, err
	}
	return parseRepoStats(body)
}

func parseRepoStats(body []byte) (RepoStats, error) {
	if !gjson.ValidBytes(body) {
		return RepoStats{}, malformed(sourceGitHub, "repository response is not valid JSON")
	}
	fields := gjson.GetManyBytes(body, "stargazers_count", "subscribers_count", "forks_count")
	for i, name := range []string{"stargazers_count", "subscribers_count", "forks_count"} {
		if fields[i].Type != gjson.Number {
			return RepoStats{}, malformed(sourceGitHub, "missing %s", name)
		}
	}
	return RepoStats{
		Stargazers: int(fields[0].Int()),
		Watchers:   int(fields[1].Int()),
		Forks:      int(fields[2].Int()),
	}, nil
}

// ContributorsPage downloads the repository HTML page.
func (g *GitHub) ContributorsPage(ctx context.Context) ([]byte, error) {
	return g.client.Get(ctx, sourceGitHub, fmt.Sprintf("%s/%s", g.webURL, g.repo), nil)
}

// parseContributors finds the sidebar link mentioning contributors and reads its counter.
func parseContributors(page []byte) (int, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return 0, malformed(sourceGitHub, "parsing repository page: %v", err)
	}
	for _, a := range findAll(doc, func(n *html.Node) bool { return n.Data == "a" }) {
		if !strings.Contains(strings.ToLower(textContent(a)), "contributors") {
			continue
		}
		counters := findAll(a, func(n *html.Node) bool { return hasClass(n, "Counter") })
		if len(counters) == 0 {
			continue
		}
		if n, ok := counterValue(counters[0]); ok {
			return n, nil
		}
	}
	return 0, malformed(sourceGitHub, "could not find contributors counter")
}

// counterValue prefers the exact title attribute over the possibly abbreviated text.
func counterValue(n *html.Node) (int, bool) {
	candidates := []string{attr(n, "title"), textContent(n)}
	for _, c := range candidates {
		c = strings.ReplaceAll(strings.TrimSpace(c), ",", "")
		if v, err := strconv.Atoi(c); err == nil {
			return v, true
		}
	}
	return 0, false
}

func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
