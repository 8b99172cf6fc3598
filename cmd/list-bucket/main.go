// list-bucket - просмотр содержимого S3 бакета, с которым работают
// инструменты list_s3_files и read_s3_file.
//
// Использование:
//
//	list-bucket [-config config.yaml] [-prefix reports/] [-limit 500]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ZhuLinsen/MiniAgent/pkg/app"
	"github.com/ZhuLinsen/MiniAgent/pkg/s3storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

type errMsg error
type contentMsg []s3storage.StoredObject

type model struct {
	client   s3storage.ClientInterface
	bucket   string
	prefix   string
	limit    int
	spinner  spinner.Model
	viewport viewport.Model

	loading bool
	err     error
	ready   bool
}

func initialModel(client s3storage.ClientInterface, bucket, prefix string, limit int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		limit:    limit,
		spinner:  s,
		viewport: viewport.New(80, 20),
		loading:  true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchBucketContents(m.client, m.prefix, m.limit),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case errMsg:
		m.err = msg
		m.loading = false
		return m, nil

	case contentMsg:
		m.loading = false
		m.viewport.SetContent(formatFileList(msg, m.limit))
		return m, nil

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 2
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight
		m.viewport.YPosition = headerHeight
		m.ready = true
	}

	if m.loading {
		m.spinner, cmd = m.spinner.Update(msg)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\nError: %v\n\nPress 'q' to quit.", m.err)
	}
	if m.loading {
		return fmt.Sprintf("\n %s Connecting to S3 and fetching objects...\n\n", m.spinner.View())
	}

	header := titleStyle.Render(fmt.Sprintf("S3 Bucket: %s/%s", m.bucket, m.prefix))
	return fmt.Sprintf("%s\n%s\n\n(Press 'q' to quit, arrows to scroll)", header, m.viewport.View())
}

func fetchBucketContents(client s3storage.ClientInterface, prefix string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		files, err := client.ListFiles(ctx, prefix, limit)
		if err != nil {
			return errMsg(err)
		}
		return contentMsg(files)
	}
}

func formatFileList(files []s3storage.StoredObject, limit int) string {
	if len(files) == 0 {
		return "Bucket is empty."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total Objects: %d", len(files))
	if limit > 0 && len(files) >= limit {
		b.WriteString(" (limit reached)")
	}
	b.WriteString("\n\n")

	for _, f := range files {
		fmt.Fprintf(&b, "%s  %-10s  %-12s  %s\n",
			itemStyle.Render("•"),
			humanize.Bytes(uint64(f.Size)),
			humanize.Time(f.LastModified),
			f.Key,
		)
	}
	return b.String()
}

func main() {
	configPath := flag.String("config", "", "path to config file (yaml, toml or json)")
	prefix := flag.String("prefix", "", "object key prefix")
	limit := flag.Int("limit", 500, "maximum number of objects to list")
	flag.Parse()

	cfg, _, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	client, err := s3storage.New(cfg.S3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "S3 init error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(
		initialModel(client, client.Bucket(), *prefix, *limit),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
