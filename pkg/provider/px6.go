package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/omimic12/proxy6-automator/constants"
	"github.com/omimic12/proxy6-automator/pkg"
)

const (
	maxResponseBytes = 4 << 20
)

var (
	ErrInvalidResponse = errors.New("response is not json")
	ErrMissingBalance  = errors.New("balance is missing")
)

type PX6 struct {
	apiKey      string
	baseURL     string
	relayPrefix string
	relay       bool

	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewPX6 builds a client for the px6 API. The limiter is shared by every
// endpoint and by relayed copies of the client; nil means unlimited.
func NewPX6(
	apiKey string,
	baseURL string,
	relayPrefix string,
	relay bool,
	client *http.Client,
	limiter *rate.Limiter,
	logger *zap.Logger,
) *PX6 {
	if client == nil {
		client = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PX6{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		relayPrefix: relayPrefix,
		relay:       relay,
		client:      client,
		limiter:     limiter,
		logger:      logger,
	}
}

func (s *PX6) Name() string {
	return pkg.ProviderPX6
}

func (s *PX6) WithRelay(enabled bool) pkg.Provider {
	c := *s
	c.relay = enabled
	return &c
}

func (s *PX6) Relayed() bool {
	return s.relay
}

func (s *PX6) Balance(ctx context.Context) (*pkg.Balance, error) {
	res, err := s.call(ctx, constants.MethodBalance, "", nil)
	if err != nil {
		return nil, err
	}

	balance := res.Get("balance")
	if !balance.Exists() {
		return nil, &pkg.RejectedError{Method: constants.MethodBalance, Message: ErrMissingBalance.Error()}
	}

	return &pkg.Balance{
		Amount:   balance.Float(),
		Currency: res.Get("currency").String(),
	}, nil
}

func (s *PX6) Price(ctx context.Context, profile pkg.Profile, count int) (*pkg.Quote, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	params.Set("period", strconv.Itoa(profile.Period))
	params.Set("version", string(profile.Version))

	res, err := s.call(ctx, constants.MethodGetPrice, constants.MethodGetPrice, params)
	if err != nil {
		return nil, err
	}

	return &pkg.Quote{
		Price:       res.Get("price").Float(),
		PriceSingle: res.Get("price_single").Float(),
		Period:      int(res.Get("period").Int()),
		Count:       int(res.Get("count").Int()),
	}, nil
}

func (s *PX6) ActiveProxies(ctx context.Context) ([]pkg.Record, error) {
	params := url.Values{}
	params.Set("state", constants.ProxyStateActive)
	params.Set("limit", strconv.Itoa(constants.InventoryLimit))

	res, err := s.call(ctx, constants.MethodGetProxy, constants.MethodGetProxy, params)
	if err != nil {
		return nil, err
	}

	return decodeRecords(res.Get("list")), nil
}

func (s *PX6) Countries(ctx context.Context, version pkg.IPVersion) ([]string, error) {
	params := url.Values{}
	params.Set("version", string(version))

	res, err := s.call(ctx, constants.MethodGetCountry, constants.MethodGetCountry, params)
	if err != nil {
		return nil, err
	}

	var countries []string
	res.Get("list").ForEach(func(_, value gjson.Result) bool {
		countries = append(countries, value.String())
		return true
	})

	return countries, nil
}

func (s *PX6) SetDescription(ctx context.Context, id string, descr string) error {
	params := url.Values{}
	params.Set("ids", id)
	params.Set("new", descr)

	_, err := s.call(ctx, constants.MethodSetDescr, constants.MethodSetDescr, params)
	return err
}

func (s *PX6) Buy(ctx context.Context, profile pkg.Profile, count int, descr string) (*pkg.Order, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	params.Set("period", strconv.Itoa(profile.Period))
	params.Set("country", profile.Country)
	params.Set("version", string(profile.Version))
	params.Set("type", string(profile.Protocol))
	params.Set("descr", descr)
	// the provider enables auto prolongation by the presence of the parameter
	if profile.AutoProlong {
		params.Set("auto_prolong", "1")
	}

	res, err := s.call(ctx, constants.MethodBuy, constants.MethodBuy, params)
	if err != nil {
		return nil, err
	}

	order := &pkg.Order{
		OrderID: res.Get("order_id").Int(),
		Records: decodeRecords(res.Get("list")),
		Count:   int(res.Get("count").Int()),
		Price:   res.Get("price").Float(),
		Period:  int(res.Get("period").Int()),
		Country: res.Get("country").String(),
	}

	if balance := res.Get("balance"); balance.Exists() {
		order.Balance = &pkg.Balance{
			Amount:   balance.Float(),
			Currency: res.Get("currency").String(),
		}
	}

	return order, nil
}

// endpoint builds the API url for method; an empty method addresses the
// account itself, which answers with the balance.
func (s *PX6) endpoint(method string, params url.Values) string {
	target := s.baseURL + "/" + s.apiKey
	if method != "" {
		target += "/" + method
	}
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	if s.relay {
		return s.relayPrefix + url.QueryEscape(target)
	}
	return target
}

func (s *PX6) call(ctx context.Context, name string, method string, params url.Values) (gjson.Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, &pkg.TransportError{Method: name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(method, params), nil)
	if err != nil {
		return gjson.Result{}, &pkg.TransportError{Method: name, Err: err}
	}

	s.logger.Debug("px6 request", zap.String("method", name), zap.Bool("relay", s.relay))

	resp, err := s.client.Do(req)
	if err != nil {
		return gjson.Result{}, &pkg.TransportError{Method: name, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, &pkg.TransportError{Method: name, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, &pkg.TransportError{Method: name, Err: errors.Wrap(err, "failed to read body")}
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &pkg.TransportError{Method: name, Err: ErrInvalidResponse}
	}

	res := gjson.ParseBytes(body)
	if res.Get("status").String() != constants.StatusYes {
		return res, &pkg.RejectedError{
			Method:  name,
			Code:    int(res.Get("error_id").Int()),
			Message: res.Get("error").String(),
		}
	}

	return res, nil
}

// decodeRecords walks the id -> proxy object in document order.
func decodeRecords(list gjson.Result) []pkg.Record {
	records := make([]pkg.Record, 0)
	list.ForEach(func(key, value gjson.Result) bool {
		r := pkg.Record{
			ID:          value.Get("id").String(),
			IP:          value.Get("ip").String(),
			Host:        value.Get("host").String(),
			Port:        value.Get("port").String(),
			User:        value.Get("user").String(),
			Pass:        value.Get("pass").String(),
			Type:        value.Get("type").String(),
			Country:     value.Get("country").String(),
			Version:     value.Get("version").String(),
			Date:        value.Get("date").String(),
			DateEnd:     value.Get("date_end").String(),
			Unixtime:    value.Get("unixtime").Int(),
			UnixtimeEnd: value.Get("unixtime_end").Int(),
			Active:      value.Get("active").Bool(),
			Descr:       value.Get("descr").String(),
		}
		if r.ID == "" && list.IsObject() {
			r.ID = key.String()
		}
		records = append(records, r)
		return true
	})

	return records
}
