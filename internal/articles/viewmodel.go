// Package articles binds a domain.Fetcher to an observable article list.
package articles

import (
	"image"
	"log/slog"

	"github.com/mmcdole/broadsheet/internal/domain"
	"github.com/mmcdole/broadsheet/internal/imaging"
	"github.com/mmcdole/broadsheet/internal/mainloop"
)

// ContentType is negotiated with the article API on every request.
const ContentType = "application/vnd.api+json;charset=utf-8"

// DefaultArticlesPath is used when no path is configured
const DefaultArticlesPath = "/api/articles"

// ChangeKind identifies what an observer is being told about
type ChangeKind int

const (
	// ArticlesReplaced means the whole list was swapped (possibly for an empty one)
	ArticlesReplaced ChangeKind = iota
	// ImageChanged means one entry's DownloadedImage was set or cleared
	ImageChanged
)

// Change is delivered to observers after every list mutation.
type Change struct {
	Kind      ChangeKind
	ArticleID string // ImageChanged only
	Articles  []domain.Article
}

type observer struct {
	id int
	fn func(Change)
}

// ViewModel owns the article list shown by the presentation layer.
//
// Every result is applied on the scheduler passed to NewViewModel, which is
// also the only place the list is read or written. LoadArticles may be called
// from any goroutine; every other method must be called on the scheduler.
type ViewModel struct {
	fetcher      domain.Fetcher
	sched        mainloop.Scheduler
	articlesPath string
	logger       *slog.Logger

	requests *cancelSet

	// Owned by the scheduler
	articles       []domain.Article
	imagesInFlight map[string]uint64 // article id -> image request sequence
	imageSeq       uint64
	observers      []observer
	nextObserver   int
}

var _ domain.FetcherDelegate = (*ViewModel)(nil)

// NewViewModel creates an empty view model and installs itself as the
// fetcher's delegate.
func NewViewModel(fetcher domain.Fetcher, sched mainloop.Scheduler, articlesPath string, logger *slog.Logger) *ViewModel {
	if logger == nil {
		logger = slog.Default()
	}
	if articlesPath == "" {
		articlesPath = DefaultArticlesPath
	}
	vm := &ViewModel{
		fetcher:        fetcher,
		sched:          sched,
		articlesPath:   articlesPath,
		logger:         logger,
		requests:       newCancelSet(),
		imagesInFlight: make(map[string]uint64),
	}
	fetcher.SetDelegate(vm)
	return vm
}

// Articles returns a snapshot of the current list.
func (vm *ViewModel) Articles() []domain.Article {
	out := make([]domain.Article, len(vm.articles))
	copy(out, vm.articles)
	return out
}

// Article looks up one entry by id.
func (vm *ViewModel) Article(id string) (domain.Article, bool) {
	if i := vm.indexOf(id); i >= 0 {
		return vm.articles[i], true
	}
	return domain.Article{}, false
}

// ImageLoading reports whether artwork for id is being fetched.
func (vm *ViewModel) ImageLoading(id string) bool {
	_, ok := vm.imagesInFlight[id]
	return ok
}

// Observe registers fn to be called after every change. The returned func
// unregisters it.
func (vm *ViewModel) Observe(fn func(Change)) (cancel func()) {
	vm.nextObserver++
	id := vm.nextObserver
	vm.observers = append(vm.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range vm.observers {
			if o.id == id {
				vm.observers = append(vm.observers[:i:i], vm.observers[i+1:]...)
				return
			}
		}
	}
}

// LoadArticles fetches the article list and replaces the current one.
// Any failure leaves an empty list; nothing is reported to the caller.
func (vm *ViewModel) LoadArticles() {
	vm.start(domain.ArticleRequest(vm.articlesPath), func(r domain.Result) {
		list, err := decodeArticleResult(r)
		if err != nil {
			vm.logger.Warn("failed to load articles", "error", err)
			list = []domain.Article{}
		} else {
			vm.logger.Debug("loaded articles", "count", len(list))
		}
		vm.articles = list
		// Fetches for the old entries no longer block their successors
		vm.imagesInFlight = make(map[string]uint64)
		vm.notify(Change{Kind: ArticlesReplaced})
	})
}

// LoadImage fetches the artwork for article and attaches it to the matching
// entry. It does nothing when the article already has an image, is no longer
// in the list, or already has a fetch in flight.
func (vm *ViewModel) LoadImage(article domain.Article) {
	if article.DownloadedImage != nil {
		return
	}
	idx := vm.indexOf(article.ID)
	if idx < 0 || vm.articles[idx].DownloadedImage != nil {
		return
	}
	if _, busy := vm.imagesInFlight[article.ID]; busy {
		return
	}

	id, locator := article.ID, vm.articles[idx].ImageURL
	vm.imageSeq++
	seq := vm.imageSeq
	vm.imagesInFlight[id] = seq
	req := domain.ImageRequest(locator)

	ok := vm.start(req, func(r domain.Result) {
		if vm.imagesInFlight[id] == seq {
			delete(vm.imagesInFlight, id)
		}

		img, err := decodeImageResult(r)
		if err != nil {
			vm.logger.Debug("failed to load image", "id", id, "error", err)
			if r.Err == nil {
				// A body that does not decode must not be served again
				vm.fetcher.Evict(req)
			}
		}

		// The list may have been replaced while the request was in flight
		i := vm.indexOf(id)
		if i < 0 || vm.articles[i].ImageURL != locator {
			vm.logger.Debug("discarding image for replaced article", "id", id)
			return
		}
		// A newer fetch for the same entry already attached artwork
		if img == nil && vm.articles[i].DownloadedImage != nil {
			return
		}
		vm.articles[i].DownloadedImage = img
		vm.notify(Change{Kind: ImageChanged, ArticleID: id})
	})
	if !ok && vm.imagesInFlight[id] == seq {
		delete(vm.imagesInFlight, id)
	}
}

// Close cancels every outstanding request. Completions that arrive later are
// dropped and observers are released.
func (vm *ViewModel) Close() {
	vm.requests.close()
	vm.observers = nil
}

// Headers implements domain.FetcherDelegate.
func (vm *ViewModel) Headers(domain.Fetcher) map[string]string {
	return map[string]string{"Content-Type": ContentType}
}

// TransformStream implements domain.FetcherDelegate by moving every
// completion onto the scheduler before anyone downstream observes it.
func (vm *ViewModel) TransformStream(_ domain.Fetcher, s domain.Stream) domain.Stream {
	return domain.StreamFunc(func(fn func(domain.Result)) {
		s.Subscribe(func(r domain.Result) {
			vm.sched.Post(func() { fn(r) })
		})
	})
}

// start issues req and runs apply with its result, unless the view model was
// closed in the meantime. It returns false when already closed.
func (vm *ViewModel) start(req domain.Request, apply func(domain.Result)) bool {
	ctx, token, ok := vm.requests.add()
	if !ok {
		return false
	}

	vm.fetcher.Fetch(ctx, req).Subscribe(func(r domain.Result) {
		if vm.requests.isClosed() {
			return
		}
		vm.requests.remove(token)
		apply(r)
	})
	return true
}

func (vm *ViewModel) notify(c Change) {
	if len(vm.observers) == 0 {
		return
	}
	c.Articles = vm.Articles()
	for _, o := range vm.observers {
		o.fn(c)
	}
}

func (vm *ViewModel) indexOf(id string) int {
	for i, a := range vm.articles {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func decodeArticleResult(r domain.Result) ([]domain.Article, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return DecodeArticles(r.Data)
}

func decodeImageResult(r domain.Result) (image.Image, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return imaging.Decode(r.Data)
}
