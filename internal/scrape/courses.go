package scrape

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/portal"
)

// CoursesPath is the portal page listing the registered course plan.
const CoursesPath = "Attendance/courseplan"

// ParseCourses extracts the course catalog from the course plan page. The
// page renders each course as a div.card whose first two text chunks are the
// course code and name. The same course can appear in several cards, so the
// result is deduplicated by code, keeping first-seen order.
func ParseCourses(page []byte) ([]schemas.CourseInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing course plan page: %v", portal.ErrPageStructure, err)
	}

	cards := doc.Find("div.card")
	if cards.Length() == 0 {
		return nil, fmt.Errorf("%w: course plan page has no course cards", portal.ErrPageStructure)
	}

	seen := make(map[string]bool)
	var out []schemas.CourseInfo
	cards.Each(func(_ int, card *goquery.Selection) {
		chunks := textChunks(card)
		if len(chunks) < 2 {
			return
		}
		code, name := chunks[0], chunks[1]
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		out = append(out, schemas.CourseInfo{CourseCode: code, CourseName: name})
	})
	return out, nil
}

// textChunks returns the card's non-empty text nodes, trimmed, in document
// order.
func textChunks(sel *goquery.Selection) []string {
	var chunks []string
	for _, node := range sel.Nodes {
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				if t := strings.TrimSpace(n.Data); t != "" {
					chunks = append(chunks, t)
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(node)
	}
	return chunks
}
