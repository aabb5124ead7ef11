/*
Package metrics wraps datadog-go to facilitate metric recording.
Naming convention:
- Internal process time: *.time
- Counter: *.sum
- Error: *.err
*/
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"

	"github.com/etherbay/goapi/base/log"
)

// statsd counters are buffered before hitting the agent
const bufferMetrics = 10

// Ender closes a BumpTime measurement
type Ender interface {
	End()
}

// Service provides the metric recording surface
type Service interface {
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)
	BumpTime(key string, tags ...string) Ender
}

var (
	initOnce sync.Once
	client   *statsd.Client
)

func initClient() {
	host := viper.GetString("datadog.host")
	if host == "" {
		return
	}
	addr := fmt.Sprintf("%s:%d", host, viper.GetInt("datadog.port"))
	var err error
	client, err = statsd.NewBuffered(addr, bufferMetrics)
	if err != nil {
		log.Log().WithFields(log.Fields{"addr": addr, "err": err}).Warn("can't talk to datadog agent, metrics are logged instead")
		client = nil
	}
}

// New creates a metric client with the package name as prefix. Without a
// configured agent, metrics fall back to the process log.
func New(pkgName string) Service {
	initOnce.Do(initClient)
	return &metrics{pkgName: pkgName}
}

type metrics struct {
	pkgName string
}

func (m *metrics) key(key string) string {
	return m.pkgName + "." + key
}

func (m *metrics) BumpSum(key string, val float64, tags ...string) {
	if client == nil {
		log.Log().WithFields(log.Fields{"key": m.key(key), "val": val}).Debug("bumpSum")
		return
	}
	client.Count(m.key(key), int64(val), ddTags(tags), 1)
}

func (m *metrics) BumpHistogram(key string, val float64, tags ...string) {
	if client == nil {
		log.Log().WithFields(log.Fields{"key": m.key(key), "val": val}).Debug("bumpHistogram")
		return
	}
	client.Histogram(m.key(key), val, ddTags(tags), 1)
}

func (m *metrics) BumpTime(key string, tags ...string) Ender {
	return &timer{m: m, key: key, tags: tags, start: time.Now()}
}

type timer struct {
	m     *metrics
	key   string
	tags  []string
	start time.Time
}

func (t *timer) End() {
	elapsed := float64(time.Since(t.start)) / float64(time.Millisecond)
	if client == nil {
		log.Log().WithFields(log.Fields{"key": t.m.key(t.key), "ms": elapsed}).Debug("bumpTime")
		return
	}
	client.TimeInMilliseconds(t.m.key(t.key), elapsed, ddTags(t.tags), 1)
}

// ddTags converts alternating key/value strings into datadog tag format
func ddTags(kvs []string) []string {
	tags := make([]string, 0, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		tags = append(tags, kvs[i]+":"+kvs[i+1])
	}
	return tags
}
