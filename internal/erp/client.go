package erp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cargodocs/internal/config"
	"cargodocs/internal/logging"
)

const (
	funcTransactionsByBill      = "TransactionNumberFromBillOfLading"
	funcContainersByTransaction = "GetTransportPositionNumberByTransactionNumber"
	funcProductionRequisites    = "ContainersWithProductionRequisitesByTransactionNumber"
	funcSendProductionData      = "SendProductionDataToTransaction"
)

// Client talks to the 1C interaction service. Every call walks the endpoint
// list in order and settles for the first server that answers 200; failures
// are logged and reported as a not-found, never as a panic up the pipeline.
type Client struct {
	endpoints     []string
	login         string
	password      string
	httpClient    *http.Client
	lookupTimeout time.Duration
	submitTimeout time.Duration
	cache         *requestCache
	enrich        bool
	log           *logrus.Entry
}

func NewClient(cfg config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	endpoints := []string{
		strings.TrimRight(cfg.ErpPrimaryURL, "/"),
		strings.TrimRight(cfg.ErpSecondaryURL, "/"),
	}
	if cfg.ErpSwapEndpoints {
		endpoints[0], endpoints[1] = endpoints[1], endpoints[0]
	}
	return &Client{
		endpoints:     endpoints,
		login:         cfg.ErpLogin,
		password:      cfg.ErpPassword,
		httpClient:    httpClient,
		lookupTimeout: time.Duration(cfg.ErpLookupTimeoutMs) * time.Millisecond,
		submitTimeout: time.Duration(cfg.ErpSubmitTimeoutMs) * time.Millisecond,
		cache:         newRequestCache(cfg.ErpCacheSize),
		enrich:        cfg.EnableProvisionEnrichment,
		log:           logging.Component("erp"),
	}
}

func encodeArg(arg string) string {
	return base64.URLEncoding.EncodeToString([]byte(arg))
}

// lookup performs a cached GET against function/arg1/arg2/... and returns
// the raw response body. Cache remembers misses too, so a dead server is
// not hammered for every file of a batch.
func (c *Client) lookup(ctx context.Context, function string, encode bool, args ...string) ([]byte, bool) {
	key := function + "_" + strings.Join(args, "_")
	if entry, hit := c.cache.get(key); hit {
		c.log.Debugf("cache hit: %s", key)
		return entry.body, entry.ok
	}

	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "" {
			continue
		}
		if encode {
			arg = encodeArg(arg)
		}
		parts = append(parts, arg)
	}
	path := function + "/" + strings.Join(parts, "/")

	body, ok := c.get(ctx, path)
	c.cache.put(key, cacheEntry{body: body, ok: ok})
	return body, ok
}

func (c *Client) get(ctx context.Context, path string) ([]byte, bool) {
	for _, base := range c.endpoints {
		url := base + "/" + path
		reqCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
		body, err := c.doGet(reqCtx, url)
		cancel()
		if err != nil {
			c.log.WithError(err).Warnf("GET %s", url)
			continue
		}
		return body, true
	}
	return nil, false
}

func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.login, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{url: url, status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

type statusError struct {
	url    string
	status int
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + " from " + e.url
}

// TransactionsByBillOfLading resolves a bill of lading into transaction
// labels such as "АА-0095444 от 14.04.2025". An empty slice with ok=true
// means the service answered but knows no such bill.
func (c *Client) TransactionsByBillOfLading(ctx context.Context, bill string) ([]string, bool) {
	bill = strings.TrimSpace(bill)
	if bill == "" {
		return nil, false
	}
	body, ok := c.lookup(ctx, funcTransactionsByBill, true, bill)
	if !ok {
		return nil, false
	}
	return decodeStringList(body, c.log)
}

// ContainersByTransaction lists the container codes registered under a
// transaction. Only the number token of the label is sent, verbatim.
func (c *Client) ContainersByTransaction(ctx context.Context, transaction string) ([]string, bool) {
	number := firstToken(transaction)
	if number == "" {
		return nil, false
	}
	body, ok := c.lookup(ctx, funcContainersByTransaction, false, number)
	if !ok {
		return nil, false
	}
	return decodeStringList(body, c.log)
}

// ProductionRequisites fetches the named requisite fields for every
// container of a transaction. The response is a list of single-key objects
// keyed by container code.
func (c *Client) ProductionRequisites(ctx context.Context, transaction string, fields ...string) ([]map[string]map[string]string, bool) {
	number := firstToken(transaction)
	if number == "" {
		return nil, false
	}
	body, ok := c.lookup(ctx, funcProductionRequisites, true, number, strings.Join(fields, ","))
	if !ok {
		return nil, false
	}
	var rows []map[string]map[string]string
	if err := json.Unmarshal(body, &rows); err != nil {
		c.log.WithError(err).Warn("decode requisites response")
		return nil, false
	}
	return rows, true
}

// SubmitProductionData posts the payload to SendProductionDataToTransaction,
// enriching provision dates first when enabled. Returns true once any
// endpoint accepts the data.
func (c *Client) SubmitProductionData(ctx context.Context, payload Payload) bool {
	if c.enrich {
		payload = c.enrichProvisionDates(ctx, payload)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.WithError(err).Error("marshal production payload")
		return false
	}
	for _, base := range c.endpoints {
		url := base + "/" + funcSendProductionData
		reqCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
		err := c.doPost(reqCtx, url, body)
		cancel()
		if err != nil {
			c.log.WithError(err).Warnf("POST %s", url)
			continue
		}
		return true
	}
	return false
}

func (c *Client) doPost(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &statusError{url: url, status: resp.StatusCode}
	}
	return nil
}

func decodeStringList(body []byte, log *logrus.Entry) ([]string, bool) {
	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		log.WithError(err).Warnf("decode response: %s", truncate(string(body), 200))
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
