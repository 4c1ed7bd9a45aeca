package measure

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/pkg"
)

type (
	InfluxDB struct {
		data     chan Metric
		done     chan struct{}
		provider string
	}

	Metric struct {
		measurement string
		tags        map[string]string
		fields      map[string]interface{}
		ts          time.Time
	}
)

const (
	strWallet      = "wallet"
	strAcquisition = "acquisition"
	strProvider    = "provider"
	strCurrency    = "currency"
	strAmount      = "amount"
	strReused      = "reused"
	strPurchased   = "purchased"
)

func NewInfluxDB(
	ctx context.Context,
	bufferSize int,
	org string,
	bucket string,
	provider string,
	client influxdb2.Client,
	period time.Duration,
	logger *zap.Logger,
) (*InfluxDB, error) {
	var (
		data = make(chan Metric, bufferSize)
		done = make(chan struct{})
	)

	go func() {
		defer close(done)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		buf := []Metric{}
		flush := func() {
			if len(buf) == 0 {
				return
			}

			writeAPI := client.WriteAPIBlocking(org, bucket)
			for _, metric := range buf {
				point := influxdb2.NewPoint(metric.measurement, metric.tags, metric.fields, metric.ts)
				if err := writeAPI.WritePoint(context.Background(), point); err != nil {
					logger.Error("failed to write data", zap.Error(err))
				}
			}
			buf = []Metric{}
		}

		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case d := <-data:
						buf = append(buf, d)
					default:
						flush()
						return
					}
				}
			case <-ticker.C:
				flush()
			case d := <-data:
				buf = append(buf, d)
			}
		}
	}()

	return &InfluxDB{
		data:     data,
		done:     done,
		provider: provider,
	}, nil
}

func (i *InfluxDB) Balance(balance pkg.Balance) error {
	return i.send(strWallet, map[string]string{strCurrency: balance.Currency}, map[string]interface{}{
		strAmount: balance.Amount,
	})
}

func (i *InfluxDB) Acquired(reused, purchased int) error {
	return i.send(strAcquisition, nil, map[string]interface{}{
		strReused:    reused,
		strPurchased: purchased,
	})
}

// Wait blocks until the writer goroutine has flushed and stopped.
func (i *InfluxDB) Wait() {
	<-i.done
}

func (i *InfluxDB) send(measurement string, tags map[string]string, fields map[string]interface{}) error {
	if tags == nil {
		tags = map[string]string{}
	}
	tags[strProvider] = i.provider

	metric := Metric{
		measurement: measurement,
		tags:        tags,
		fields:      fields,
		ts:          time.Now(),
	}

	select {
	case i.data <- metric:
	case <-i.done:
	}
	return nil
}
