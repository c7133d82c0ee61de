// Package export produces the flat data projection of an order that printing
// collaborators render, and gathers the order's attachments for download.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

type OrderGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

// Item links an attachment to the local file it was downloaded to.
type Item struct {
	Attachment order.Attachment
	FilePath   string
}

// Service handles the export of orders and their attachments.
type Service struct {
	orders   OrderGetter
	client   *http.Client
	apiToken string
}

func NewService(orders OrderGetter, apiToken string) *Service {
	return &Service{
		orders:   orders,
		client:   &http.Client{Timeout: 30 * time.Second},
		apiToken: apiToken,
	}
}

// Projection loads the order and flattens it.
func (s *Service) Projection(ctx context.Context, id uuid.UUID) (Projection, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return Projection{}, err
	}

	return Project(o), nil
}

// Export downloads every attachment of the order into outputDir.
func (s *Service) Export(ctx context.Context, id uuid.UUID, outputDir string) (Projection, []Item, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return Projection{}, nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Projection{}, nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(o.Attachments))
	used := make(map[string]int)

	for i, a := range o.Attachments {
		item := Item{Attachment: a}

		if a.URL != "" {
			path, err := s.downloadAttachment(ctx, a, i, outputDir, used)
			if err != nil {
				return Projection{}, nil, fmt.Errorf("downloading attachment %s: %w", a.Name, err)
			}

			item.FilePath = path
		}

		items = append(items, item)
	}

	return Project(o), items, nil
}

func (s *Service) downloadAttachment(ctx context.Context, a order.Attachment, idx int, dir string, used map[string]int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if s.apiToken != "" {
		req.Header.Set("Authorization", "Token "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, a.URL)
	}

	body := bufio.NewReaderSize(resp.Body, 3072)
	head, _ := body.Peek(3072)

	filename := uniqueName(determineFilename(resp, a, idx, head), used)
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}

		return '_'
	}, name)
}

func determineFilename(resp *http.Response, a order.Attachment, idx int, head []byte) string {
	// The name recorded on upload wins when it carries an extension.
	if filepath.Ext(a.Name) != "" {
		return sanitize(filepath.Base(a.Name))
	}

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if filename, ok := params["filename"]; ok && filename != "" {
				return sanitize(filepath.Base(filename))
			}
		}
	}

	var ext string

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	if ext == "" {
		ext = mimetype.Detect(head).Extension()
	}

	stem := strings.TrimSuffix(sanitize(a.Name), ".")
	if stem == "" {
		stem = fmt.Sprintf("attachment_%02d", idx+1)
	}

	return stem + ext
}

// uniqueName appends _2, _3... to names already used in this export.
func uniqueName(name string, used map[string]int) string {
	used[name]++
	if used[name] == 1 {
		return name
	}

	ext := filepath.Ext(name)

	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), used[name], ext)
}

// Summary renders a plain-text overview of the order and its downloaded files.
func Summary(p Projection, items []Item) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Order %s | %s | %s\n", p.Reference, p.CustomerName, p.Status)
	fmt.Fprintf(&sb, "Due %s | Sector %s | Total %s\n", p.DueDate.Format(time.DateOnly), orDash(p.CurrentSector), p.Total)

	for _, it := range p.Items {
		fmt.Fprintf(&sb, "* %dx %s | %s | %s\n", it.Quantity, it.Name, it.UnitPrice, it.Subtotal)
	}

	files := make([]string, 0, len(items))

	for _, item := range items {
		status := "Sem Ficheiro"
		if item.FilePath != "" {
			status = filepath.Base(item.FilePath)
		}

		files = append(files, fmt.Sprintf("- %s (%s) | %s", item.Attachment.Name, item.Attachment.Kind(), status))
	}

	sort.Strings(files)

	for _, f := range files {
		sb.WriteString(f + "\n")
	}

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func money(cents int64) string {
	return catalog.FormatAmount(cents) + " €"
}
