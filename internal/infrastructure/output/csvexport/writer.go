package csvexport

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

const (
	utf8BOM      = "\ufeff"
	manifestName = "README.txt"
	// trackedRuns bounds how many runs keep their directory claims.
	trackedRuns = 64
)

// Renderer produces an additional artifact for a profile inside dir and
// returns the file name it wrote.
type Renderer interface {
	Render(dir string, profile *domain.Profile) (string, error)
}

type Options struct {
	Renderers []Renderer
	Now       func() time.Time
	Logger    *slog.Logger
}

// Writer stores each profile as one semicolon separated CSV per category plus
// a README manifest. A person directory is staged under the output root and
// renamed into place only when complete.
//
// Within one run every person directory belongs to a single source document.
// A second document folding to the same name gets the next free " (n)" suffix;
// a later run replaces what an earlier run wrote.
type Writer struct {
	renderers []Renderer
	now       func() time.Time
	logger    *slog.Logger

	mu        sync.Mutex
	claims    map[string]map[string]string // run id -> target dir -> source
	runOrder  []string
	publishMu sync.Mutex
}

func New(opts Options) *Writer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		renderers: opts.Renderers,
		now:       now,
		logger:    logger,
		claims:    make(map[string]map[string]string),
	}
}

func (w *Writer) Write(ctx context.Context, root, runID string, profile *domain.Profile) (written domain.WrittenProfile, err error) {
	if profile == nil {
		return domain.WrittenProfile{}, domain.WrapError(domain.ErrInvalidInput, "write profile", errors.New("profile is nil"))
	}
	if err := ctx.Err(); err != nil {
		return domain.WrittenProfile{}, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return domain.WrittenProfile{}, domain.WrapError(domain.ErrOutput, "create output root", err)
	}

	staging := filepath.Join(root, ".staging-"+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return domain.WrittenProfile{}, domain.WrapError(domain.ErrOutput, "create staging dir", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(staging)
		}
	}()

	csvFiles := make([]string, 0, len(domain.OutputOrder))
	for _, table := range profile.Outputs() {
		name := table.Category.Filename()
		if err := writeTable(filepath.Join(staging, name), table); err != nil {
			return domain.WrittenProfile{}, domain.WrapError(domain.ErrOutput, "write "+name, err)
		}
		csvFiles = append(csvFiles, name)
	}

	files := append([]string{}, csvFiles...)
	for _, r := range w.renderers {
		name, err := r.Render(staging, profile)
		if err != nil {
			return domain.WrittenProfile{}, domain.WrapError(domain.ErrOutput, "render artifact", err)
		}
		if name != "" {
			files = append(files, name)
		}
	}

	if err := writeManifest(filepath.Join(staging, manifestName), profile.Source, csvFiles, w.now()); err != nil {
		return domain.WrittenProfile{}, domain.WrapError(domain.ErrOutput, "write manifest", err)
	}

	target := w.claimTarget(root, runID, profile.Source)
	w.publishMu.Lock()
	err = replaceDir(staging, target)
	w.publishMu.Unlock()
	if err != nil {
		return domain.WrittenProfile{}, domain.WrapError(domain.ErrOutput, "publish output dir", err)
	}
	w.logger.Debug("profile_written",
		"run_id", runID,
		"source", profile.Source,
		"dir", target,
		"files", files,
	)
	return domain.WrittenProfile{Dir: target, Files: files}, nil
}

// claimTarget returns the person directory source owns in this run. The
// first document to reach a name keeps it; others sharing the folded name get
// "<name> (2)", "<name> (3)" and so on.
func (w *Writer) claimTarget(root, runID, source string) string {
	base := filepath.Join(root, PersonDirName(source))

	w.mu.Lock()
	defer w.mu.Unlock()
	claimed, ok := w.claims[runID]
	if !ok {
		claimed = make(map[string]string)
		w.claims[runID] = claimed
		w.runOrder = append(w.runOrder, runID)
		if len(w.runOrder) > trackedRuns {
			delete(w.claims, w.runOrder[0])
			w.runOrder = w.runOrder[1:]
		}
	}

	target := base
	for n := 2; ; n++ {
		owner, taken := claimed[target]
		if !taken || owner == source {
			break
		}
		target = fmt.Sprintf("%s (%d)", base, n)
	}
	claimed[target] = source
	return target
}

func writeTable(path string, table domain.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	buf := bufio.NewWriter(f)
	if _, err := buf.WriteString(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(buf)
	cw.Comma = ';'
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return buf.Flush()
}

func writeManifest(path, source string, files []string, created time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(f)
	fmt.Fprintln(buf, "🧾 PDF-Profil-Export")
	fmt.Fprintln(buf, "----------------------")
	fmt.Fprintf(buf, "Source PDF: %s\n", source)
	fmt.Fprintf(buf, "Erstellt: %s\n\n", created.Format("2006-01-02 15:04"))
	fmt.Fprintln(buf, "Enthaltene CSV-Dateien:")
	for _, name := range files {
		fmt.Fprintf(buf, "- %s\n", name)
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// replaceDir moves staging to target. An existing target is parked aside and
// restored if the final rename fails.
func replaceDir(staging, target string) error {
	var parked string
	if _, err := os.Stat(target); err == nil {
		parked = filepath.Join(filepath.Dir(target), ".replaced-"+uuid.NewString())
		if err := os.Rename(target, parked); err != nil {
			return fmt.Errorf("park previous output: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat output dir: %w", err)
	}

	if err := os.Rename(staging, target); err != nil {
		if parked != "" {
			_ = os.Rename(parked, target)
		}
		return fmt.Errorf("rename output dir: %w", err)
	}
	if parked != "" {
		_ = os.RemoveAll(parked)
	}
	return nil
}
