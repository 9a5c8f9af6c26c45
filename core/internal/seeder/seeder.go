// Package seeder generates synthetic analytics streams: video viewers and
// shoppers whose events arrive in a plausible order and cadence.
package seeder

import (
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/telhawk-systems/mediabridge/core/internal/ecommerce"
	"github.com/telhawk-systems/mediabridge/core/internal/video"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// Options controls what Generate produces.
type Options struct {
	Viewers  int
	Shoppers int
	// Start is the timestamp of the first event of every stream.
	Start time.Time
	// Seed makes output reproducible. Zero picks a random seed.
	Seed int64
}

// Generator produces synthetic events.
type Generator struct {
	faker *gofakeit.Faker
	rng   *rand.Rand
}

var (
	genres     = []string{"drama", "comedy", "documentary", "news", "sports", "kids"}
	networks   = []string{"HBO", "NBC", "ESPN", "BBC", "PBS"}
	ratings    = []string{"TV-G", "TV-PG", "TV-14", "TV-MA"}
	categories = []string{"games", "books", "apparel", "electronics", "garden"}
)

// New creates a generator. seed 0 selects a random seed.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Generate returns every viewer stream followed by every shopper stream.
// Events within a stream are in order.
func (g *Generator) Generate(opts Options) []*event.Event {
	start := opts.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	var out []*event.Event
	for i := 0; i < opts.Viewers; i++ {
		out = append(out, g.Viewer(start)...)
	}
	for i := 0; i < opts.Shoppers; i++ {
		out = append(out, g.Shopper(start)...)
	}
	return out
}

// stream stamps events for one anonymous id with increasing timestamps.
type stream struct {
	g      *Generator
	anonID string
	now    time.Time
	events []*event.Event
}

func (g *Generator) newStream(start time.Time) *stream {
	return &stream{g: g, anonID: g.faker.UUID(), now: start}
}

// add appends ev after a jittered gap around step.
func (s *stream) add(step time.Duration, ev *event.Event) {
	jitter := time.Duration((s.g.rng.Float64()*0.8 - 0.4) * float64(step))
	s.now = s.now.Add(step + jitter)
	ev.AnonymousID = s.anonID
	ev.MessageID = s.g.faker.UUID()
	ev.Timestamp = s.now
	s.events = append(s.events, ev)
}

func (s *stream) track(step time.Duration, kind video.Kind, props *event.Map) {
	s.add(step, event.Track(kind.EventName(), props))
}

// Viewer returns one complete playback session with an ad break, a pause,
// a seek and a quality report.
func (g *Generator) Viewer(start time.Time) []*event.Event {
	s := g.newStream(start)
	f := g.faker

	asset := f.UUID()
	length := f.Number(600, 3600)
	title := titleCase(f.Adjective() + " " + f.Noun())
	content := event.MapOf(
		"title", title,
		"contentAssetId", asset,
		"totalLength", length,
		"livestream", f.Number(0, 9) == 0,
		"program", f.Company()+" Presents",
		"season", f.Number(1, 8),
		"episode", f.Number(1, 22),
		"genre", f.RandomString(genres),
		"channel", f.RandomString(networks),
		"rating", f.RandomString(ratings),
		"publisher", f.Company(),
	)

	if f.Bool() {
		s.add(time.Second, event.Identify(f.Username()))
	}
	s.track(2*time.Second, video.PlaybackStarted, content)

	s.track(time.Second, video.AdBreakStarted, event.MapOf("title", "Pre-roll", "indexPosition", 1))
	s.track(500*time.Millisecond, video.AdStarted, event.MapOf(
		"title", f.Company()+" spot",
		"assetId", f.UUID(),
		"indexPosition", 1,
		"totalLength", 15,
		"publisher", f.Company(),
	))
	s.track(15*time.Second, video.AdCompleted, nil)
	s.track(500*time.Millisecond, video.AdBreakCompleted, nil)

	s.track(time.Second, video.ContentStarted, event.MapOf(
		"title", title,
		"indexPosition", 1,
		"totalLength", length,
		"position", 0,
		"startTime", 0,
		"genre", f.RandomString(genres),
	))
	s.track(30*time.Second, video.BufferStarted, nil)
	s.track(2*time.Second, video.BufferCompleted, nil)
	s.track(5*time.Second, video.QualityUpdated, event.MapOf(
		"bitrate", f.RandomInt([]int{800, 1500, 3000, 6000}),
		"startupTime", f.Number(1, 4),
		"fps", f.RandomInt([]int{24, 30, 60}),
		"droppedFrames", f.Number(0, 40),
	))
	s.track(2*time.Minute, video.PlaybackPaused, nil)
	s.track(20*time.Second, video.PlaybackResumed, nil)
	s.track(time.Minute, video.SeekStarted, nil)
	s.track(time.Second, video.SeekCompleted, event.MapOf("seekPosition", f.Number(200, length-10)))
	s.track(3*time.Minute, video.ContentCompleted, nil)
	s.track(time.Second, video.PlaybackCompleted, nil)
	return s.events
}

// Shopper returns a browse-to-purchase sequence.
func (g *Generator) Shopper(start time.Time) []*event.Event {
	s := g.newStream(start)
	f := g.faker

	s.add(time.Second, event.Identify(f.Username()))
	s.add(2*time.Second, event.Screen("Home", event.MapOf("referrer", f.DomainName())))

	var cart []any
	var total float64
	for i := 0; i < f.Number(1, 3); i++ {
		item, lineTotal := g.product()
		s.add(10*time.Second, event.Track(ecommerce.ProductViewed.EventName(), item.Clone()))
		s.add(5*time.Second, event.Track(ecommerce.ProductAdded.EventName(), item.Clone()))
		cart = append(cart, item)
		total += lineTotal
	}

	s.add(20*time.Second, event.Track(ecommerce.CartViewed.EventName(), event.MapOf("products", cart)))
	s.add(15*time.Second, event.Track(ecommerce.CheckoutStarted.EventName(), event.MapOf("products", cart, "step", 1)))
	s.add(time.Minute, event.Track(ecommerce.OrderCompleted.EventName(), event.MapOf(
		"orderId", f.UUID(),
		"total", total,
		"currency", "USD",
		"coupon", f.RandomString([]string{"", "SPRING", "WELCOME10"}),
		"products", cart,
	)))
	return s.events
}

// product returns a product record and its line total.
func (g *Generator) product() (*event.Map, float64) {
	f := g.faker
	quantity := f.Number(1, 3)
	price := f.Price(2, 120)
	return event.MapOf(
		"productId", f.UUID()[:8],
		"name", f.Adjective()+" "+f.Noun(),
		"category", f.RandomString(categories),
		"quantity", quantity,
		"price", price,
	), price * float64(quantity)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
