package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cargodocs/internal"
	"cargodocs/internal/config"
	"cargodocs/internal/erp"
	"cargodocs/internal/logging"
	"cargodocs/internal/notify"
	"cargodocs/internal/report"
	"cargodocs/internal/storage"
	"cargodocs/internal/util"
)

const billSuffixMarker = "SRV"

// Engine runs one reconciliation pass over the staging directory: per
// folder, per listed file, it validates the OCR output, resolves
// transaction and container identifiers against the ERP, files the result
// into the success or error directory and dispatches one report email.
type Engine struct {
	cfg    config.Config
	erp    *erp.Client
	mailer notify.Mailer
	db     *storage.DB
	log    *logrus.Entry
}

// NewEngine wires the engine. db may be nil to skip journaling.
func NewEngine(cfg config.Config, client *erp.Client, mailer notify.Mailer, db *storage.DB) *Engine {
	if mailer == nil {
		mailer = notify.LogMailer{}
	}
	return &Engine{
		cfg:    cfg,
		erp:    client,
		mailer: mailer,
		db:     db,
		log:    logging.Component("pipeline"),
	}
}

// Run processes every staged folder that carries a metadata descriptor.
// Folders are handled independently: a panic or unexpected error inside one
// folder is logged and leaves that folder in place for manual review.
func (e *Engine) Run(ctx context.Context) error {
	entries, err := os.ReadDir(e.cfg.StagingDir)
	if err != nil {
		return fmt.Errorf("scan staging dir: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(e.cfg.StagingDir, entry.Name())
		if _, err := os.Stat(filepath.Join(folder, internal.MetadataFileName)); err == nil {
			folders = append(folders, folder)
		}
	}
	if len(folders) > 0 {
		e.log.Infof("обнаружено директорий для обработки: %d", len(folders))
	}

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.processFolderSafe(ctx, folder)
	}
	return nil
}

func (e *Engine) processFolderSafe(ctx context.Context, folder string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("необработанная ошибка в папке %s: %v", folder, r)
		}
	}()
	e.processFolder(ctx, folder)
}

func (e *Engine) processFolder(ctx context.Context, folder string) {
	started := time.Now()
	name := filepath.Base(folder)
	log := e.log.WithField("folder", name)

	meta, err := internal.LoadBatchMetadata(filepath.Join(folder, internal.MetadataFileName))
	if err != nil {
		log.WithError(err).Error("некорректный metadata.json, папка целиком уходит в ошибки")
		e.quarantineFolder(folder)
		return
	}

	meta.ErrorDir = filepath.Join(e.cfg.ErrorDir, util.SanitizePathname(name, false, e.cfg.ErrorDir, 50))
	meta.SuccessDir = filepath.Join(e.cfg.SuccessDir, util.SanitizePathname(name, false, e.cfg.SuccessDir, 50))

	var restrictionNotes []string
	pdfPages := make(map[string]int, len(meta.Files))
	for _, filename := range meta.Files {
		pdfPages[filename] = util.PDFPageCount(filepath.Join(folder, filename))
		notes := e.processFile(ctx, folder, filename, meta)
		restrictionNotes = append(restrictionNotes, notes...)
	}

	meta.Reclassify()

	metaPath := filepath.Join(folder, internal.MetadataFileName)
	if err := meta.Save(metaPath); err != nil {
		log.WithError(err).Error("запись metadata.json")
	}
	if meta.HasErrors() {
		_ = util.TransferFiles([]string{metaPath}, meta.ErrorDir, util.TransferCopy)
	}
	if meta.HasSuccesses() {
		_ = util.TransferFiles([]string{metaPath}, meta.SuccessDir, util.TransferMove)
	} else if meta.HasErrors() {
		_ = os.Remove(metaPath)
	}

	e.dispatchReport(ctx, meta, restrictionNotes, log)

	if err := util.RemoveDirIfEmpty(folder); err != nil {
		log.WithError(err).Warn("очистка папки")
	}

	e.journalRun(meta, folder, pdfPages, time.Since(started), log)
}

// quarantineFolder moves a folder with a structurally broken descriptor to
// the error directory wholesale. No per-file processing is attempted.
func (e *Engine) quarantineFolder(folder string) {
	name := filepath.Base(folder)
	errorDir := filepath.Join(e.cfg.ErrorDir, util.SanitizePathname(name, false, e.cfg.ErrorDir, 50))

	entries, err := os.ReadDir(folder)
	if err != nil {
		e.log.WithError(err).Errorf("чтение папки %s", folder)
		return
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(folder, entry.Name()))
	}
	if err := util.TransferFiles(paths, errorDir, util.TransferMove); err != nil {
		e.log.WithError(err).Errorf("перенос папки %s", folder)
		return
	}
	_ = util.RemoveDirIfEmpty(folder)

	if e.db != nil {
		_, err := e.db.InsertRun(internal.RunRecord{
			TraceID: name,
			Folder:  folder,
			Counts:  map[string]int{"global_errors": 1},
		})
		if err != nil {
			e.log.WithError(err).Warn("журнал")
		}
	}
}

// processFile runs the reconciliation state machine for one attachment and
// returns any container restriction notes encountered.
func (e *Engine) processFile(ctx context.Context, folder, filename string, meta *internal.BatchMetadata) []string {
	log := e.log.WithField("file", filename)

	sourcePath := filepath.Join(folder, filename)
	ocrPath := sourcePath + ".json"
	payloadPath := sourcePath + "_erp.json"
	pair := []string{sourcePath, ocrPath, payloadPath}

	fail := func(doc *internal.Document, message string) {
		log.Warn(message)
		if doc != nil {
			doc.Errors.Add(message)
			if err := doc.Save(ocrPath); err != nil {
				log.WithError(err).Warn("запись документа")
			}
			meta.Errors.Add(filename, doc.FormatReportWithErrors()...)
		} else {
			meta.Errors.Add(filename, message)
		}
		_ = util.TransferFiles(pair, meta.ErrorDir, util.TransferMove)
	}

	if _, err := os.Stat(sourcePath); err != nil {
		fail(nil, fmt.Sprintf("Отсутствует исходный файл %s, указанный в metadata.json", filename))
		return nil
	}
	if _, err := os.Stat(ocrPath); err != nil {
		fail(nil, fmt.Sprintf("%s: ошибка распознавания, отсутствует результат OCR", filename))
		return nil
	}

	doc, err := internal.LoadDocument(ocrPath)
	if err != nil {
		fail(nil, fmt.Sprintf("%s: некорректный результат OCR: %v", filename, err))
		return nil
	}
	doc.FilePath = sourcePath

	if doc.BillOfLading == "" {
		fail(doc, "Не распознан номер коносамента")
		return nil
	}
	if len(doc.Containers) == 0 {
		fail(doc, "Не распознан ни один контейнер")
		return nil
	}
	if e.dropContainersWithoutSeals(doc, meta, filename) {
		fail(doc, "Ни у одного контейнера не распознаны пломбы")
		return nil
	}

	if !e.fetchTransactionNumbers(ctx, doc) {
		fail(doc, fmt.Sprintf(
			"Для коносамента %s не удалось получить номер транзакции из ЦУП", doc.BillOfLading))
		return nil
	}

	dbCodes := e.fetchContainerUnion(ctx, doc.TransactionNumbers)
	if len(dbCodes) == 0 {
		fail(doc, fmt.Sprintf(
			"В ЦУП не найдено ни одного контейнера по сделкам: %s",
			strings.Join(doc.TransactionNumbers, ", ")))
		return nil
	}

	if err := CorrectContainerCodes(doc, dbCodes, e.cfg.MatchThreshold); err != nil {
		fail(doc, fmt.Sprintf("Сопоставление контейнеров: %v", err))
		return nil
	}

	dropped := intersectContainers(doc, dbCodes)
	if len(doc.Containers) == 0 {
		fail(doc, fmt.Sprintf(
			"Ни один распознанный контейнер не найден в ЦУП по сделкам: %s",
			strings.Join(doc.TransactionNumbers, ", ")))
		return nil
	}
	if len(dropped) > 0 {
		message := fmt.Sprintf(
			"Контейнеры %s отсутствуют в ЦУП и исключены из отправки",
			strings.Join(dropped, ", "))
		log.Warn(message)
		doc.Errors.Add(message)
		meta.Errors.Add(filename, message)
		if err := doc.Save(ocrPath); err != nil {
			log.WithError(err).Warn("запись документа")
		}
		// Keep a trace of the discarded containers next to the errors.
		_ = util.TransferFiles(pair, meta.ErrorDir, util.TransferCopy)
	}

	var restrictionNotes []string
	for _, cont := range doc.Containers {
		if cont.Note != "" {
			restrictionNotes = append(restrictionNotes, cont.Note)
		}
	}

	if err := doc.EncodeFile(); err != nil {
		fail(doc, fmt.Sprintf("Не удалось прочитать исходный файл: %v", err))
		return restrictionNotes
	}
	payload := erp.BuildPayload(doc)
	if err := writePayload(payloadPath, payload); err != nil {
		log.WithError(err).Warn("запись payload")
	}

	if e.cfg.EnableErpSubmit {
		doc.IsSentToErp = e.erp.SubmitProductionData(ctx, payload)
		if !doc.IsSentToErp {
			fail(doc, "Не удалось отправить данные в ЦУП")
			return restrictionNotes
		}
	}

	if err := doc.Save(ocrPath); err != nil {
		log.WithError(err).Warn("запись документа")
	}
	meta.Successes.Add(filename, doc.FormatReport())
	_ = util.TransferFiles(pair, meta.SuccessDir, util.TransferMove)
	log.Info("файл успешно обработан")
	return restrictionNotes
}

// dropContainersWithoutSeals removes containers missing seals, recording a
// message when only a part of them is affected. Returns true when no
// container has seals at all, which is terminal.
func (e *Engine) dropContainersWithoutSeals(doc *internal.Document, meta *internal.BatchMetadata, filename string) bool {
	var kept []*internal.Container
	var dropped []string
	for _, cont := range doc.Containers {
		if len(cont.Seals) > 0 {
			kept = append(kept, cont)
		} else {
			dropped = append(dropped, cont.Code)
		}
	}
	if len(kept) == 0 {
		return true
	}
	if len(dropped) > 0 {
		message := fmt.Sprintf(
			"У контейнеров %s не распознаны пломбы, они исключены из обработки",
			strings.Join(dropped, ", "))
		doc.Errors.Add(message)
		meta.Errors.Add(filename, message)
		doc.Containers = kept
	}
	return false
}

// fetchTransactionNumbers resolves transactions for the bill of lading,
// retrying once with the service suffix stripped when the plain lookup
// comes back empty.
func (e *Engine) fetchTransactionNumbers(ctx context.Context, doc *internal.Document) bool {
	candidates := []string{doc.BillOfLading}
	if stripped := strings.TrimSuffix(doc.BillOfLading, billSuffixMarker); stripped != doc.BillOfLading {
		if stripped = strings.TrimSpace(stripped); stripped != "" {
			candidates = append(candidates, stripped)
		}
	}

	for _, bill := range candidates {
		transactions, ok := e.erp.TransactionsByBillOfLading(ctx, bill)
		if ok && len(transactions) > 0 {
			doc.BillOfLading = bill
			doc.TransactionNumbers = transactions
			return true
		}
	}
	return false
}

// fetchContainerUnion collects the deduplicated union of container codes
// registered under every transaction.
func (e *Engine) fetchContainerUnion(ctx context.Context, transactions []string) []string {
	var union internal.StringSet
	for _, transaction := range transactions {
		codes, ok := e.erp.ContainersByTransaction(ctx, transaction)
		if !ok {
			continue
		}
		union.Add(codes...)
	}
	return union
}

// intersectContainers keeps only document containers confirmed by the ERP
// and returns the codes of the dropped ones.
func intersectContainers(doc *internal.Document, dbCodes []string) []string {
	confirmed := make(map[string]bool, len(dbCodes))
	for _, code := range dbCodes {
		confirmed[code] = true
	}
	var kept []*internal.Container
	var dropped []string
	for _, cont := range doc.Containers {
		if confirmed[cont.Code] {
			kept = append(kept, cont)
		} else {
			dropped = append(dropped, cont.Code)
		}
	}
	doc.Containers = kept
	return dropped
}

func writePayload(path string, payload erp.Payload) error {
	blob, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

func (e *Engine) dispatchReport(ctx context.Context, meta *internal.BatchMetadata, notes []string, log *logrus.Entry) {
	if !e.cfg.EnableEmailNotification {
		return
	}
	body, err := report.Render(meta, e.cfg.EnableSuccessNotifications)
	if err != nil {
		log.WithError(err).Error("формирование отчёта")
		return
	}
	if body == "" {
		return
	}
	msg := notify.Message{
		Subject:    report.BuildSubject(meta.Subject, notes),
		HTMLBody:   body,
		Recipients: e.cfg.NotificationEmails,
	}
	if err := e.mailer.Send(ctx, msg); err != nil {
		log.WithError(err).Error("отправка отчёта")
	}
}

func (e *Engine) journalRun(meta *internal.BatchMetadata, folder string, pdfPages map[string]int, elapsed time.Duration, log *logrus.Entry) {
	if e.db == nil {
		return
	}
	run := internal.RunRecord{
		TraceID: filepath.Base(folder),
		Folder:  folder,
		Subject: meta.Subject,
		Sender:  meta.Sender,
		Counts: map[string]int{
			"errors":            len(meta.Errors),
			"partial_successes": len(meta.PartialSuccesses),
			"successes":         len(meta.Successes),
			"global_errors":     len(meta.GlobalErrors),
		},
		DurationMs: elapsed.Milliseconds(),
	}
	for _, filename := range meta.Files {
		run.Files = append(run.Files, internal.FileResult{
			Filename: filename,
			Status:   meta.FileStatus(filename),
			Messages: meta.FileMessages(filename),
			PDFPages: pdfPages[filename],
		})
	}
	if _, err := e.db.InsertRun(run); err != nil {
		log.WithError(err).Warn("журнал")
	}
}
