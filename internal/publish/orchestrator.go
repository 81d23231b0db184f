// Package publish sequences one content item through the full
// pipeline: normalize, resolve, mutate, validate, back up, write,
// verify. Exactly one create-or-update network call happens per item,
// and an update is never issued before its backup is on disk.
package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/config"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/content"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/gate"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/links"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/markup"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/preflight"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/internal/wp"
	"github.com/Jasonmellet/hogeye-seo-publisher-2026/pkg/logger"
)

// State is how far an item's pipeline progressed.
type State string

const (
	StateNormalized   State = "normalized"
	StateResolved     State = "resolved"
	StateMutated      State = "mutated"
	StateValidated    State = "validated"
	StateRejected     State = "rejected"
	StateBackedUp     State = "backed-up"
	StateWritten      State = "written"
	StateVerified     State = "verified"
	StateVerifyFailed State = "verify-failed"
)

// Mode distinguishes create from update.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Notices surfaced by policy gates rather than errors.
const (
	NoticePublishConfirmationRequired = "PublishConfirmationRequired"
	NoticeWriteVerificationFailed     = "WriteVerificationFailed"
)

// Options are the per-run policy switches.
type Options struct {
	Status       content.Status
	Confirm      bool
	DryRun       bool
	ResolveLinks bool
}

// ItemResult is the per-item report. Nothing detected along the way is
// dropped from it.
type ItemResult struct {
	Slug          string
	Title         string
	State         State
	Mode          Mode
	EntityID      int
	StatusWritten content.Status
	BackupPath    string
	Notices       []string
	Warnings      []string
	Failures      []gate.Failure
	Err           error
}

func (r *ItemResult) notice(format string, args ...interface{}) {
	r.Notices = append(r.Notices, fmt.Sprintf(format, args...))
}

func (r *ItemResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// OK reports whether the item finished without errors or validation
// failures.
func (r *ItemResult) OK() bool {
	return r.Err == nil && len(r.Failures) == 0 && r.State != StateRejected
}

// Deps are the collaborators an orchestrator needs, passed explicitly
// so two site configurations never share ambient state.
type Deps struct {
	Client   *wp.Client
	Resolver *wp.Resolver
	Media    *wp.MediaFinder
	Tax      *wp.Taxonomies
	Profile  *config.Profile
	// ClientCfg may be nil when no guardrail file is in play (tests,
	// dry runs against scratch sites).
	ClientCfg *preflight.ClientConfig
}

// Orchestrator runs items through the pipeline sequentially.
type Orchestrator struct {
	deps Deps
	opts Options

	// slugMap is fetched once per run when link resolution is on.
	slugMap map[string]string
}

// New builds an orchestrator. A nil profile gets the defaults.
func New(deps Deps, opts Options) *Orchestrator {
	if deps.Profile == nil {
		deps.Profile = &config.Profile{MinImages: 2, MaxImages: 4, TOCWordThreshold: 1500, BackupDir: "work/wp_backups"}
	}
	if opts.Status == "" {
		opts.Status = content.StatusDraft
	}
	return &Orchestrator{deps: deps, opts: opts}
}

// Run processes each item independently. A failure in one item is
// recorded and the batch continues.
func (o *Orchestrator) Run(ctx context.Context, items []*content.Item) []*ItemResult {
	results := make([]*ItemResult, 0, len(items))
	for _, item := range items {
		result := o.PublishItem(ctx, item)
		results = append(results, result)
		if result.Err != nil {
			logger.Error("item failed", logger.String("slug", item.Slug), logger.Err(result.Err))
		}
	}
	return results
}

// PublishItem drives one item through the state machine.
func (o *Orchestrator) PublishItem(ctx context.Context, item *content.Item) *ItemResult {
	result := &ItemResult{
		Slug:  item.Slug,
		Title: item.Title,
		State: StateNormalized,
		Mode:  ModeCreate,
	}

	// Per-client protected markers join the item's own list.
	if o.deps.ClientCfg != nil {
		item.ProtectedMarkers = mergeMarkers(item.ProtectedMarkers, o.deps.ClientCfg.MarkersForSlug(item.Slug))
	}

	// Mutation is pure local work. A protected-marker violation stops
	// the item before any network call is issued.
	body, mutReport, err := markup.Apply(item.Body, item, markup.Options{
		EnableTOC:        item.EnableTOC,
		TOCWordThreshold: o.deps.Profile.TOCWordThreshold,
		MinImages:        o.deps.Profile.MinImages,
		MaxImages:        o.deps.Profile.MaxImages,
	})
	result.Warnings = append(result.Warnings, mutReport.Warnings...)
	var pmErr *markup.ProtectedMarkerError
	if errors.As(err, &pmErr) {
		result.State = StateRejected
		result.Err = fmt.Errorf("ProtectedContentRemoved: %w", pmErr)
		return result
	}
	if err != nil {
		result.Err = err
		return result
	}
	result.State = StateMutated

	// Resolve current remote state.
	entity, dupWarn, err := o.deps.Resolver.Resolve(ctx, item.Type, item.Slug)
	switch {
	case errors.Is(err, wp.ErrNotFound):
		entity = nil
	case err != nil:
		result.Err = fmt.Errorf("resolving %s %q: %w", item.Type, item.Slug, err)
		return result
	default:
		result.Mode = ModeUpdate
		result.EntityID = entity.ID
	}
	if dupWarn != nil {
		result.warn("%s", dupWarn)
	}
	result.State = StateResolved

	// Internal links.
	var unresolved []string
	if o.opts.ResolveLinks {
		linkMap, err := o.linkMap(ctx)
		if err != nil {
			result.Err = fmt.Errorf("building slug map: %w", err)
			return result
		}
		body, unresolved = linkMap.Resolve(body)
	}

	// Media library fallbacks by keyword relevance, both excluding ids
	// the body already uses so a pick never collides with in-body
	// content.
	if o.deps.Media != nil {
		inBody := markup.InBodyImageIDs(body)
		if item.FeaturedMediaID == 0 {
			if best, err := o.deps.Media.FindBest(ctx, item.KeywordSeed(), inBody, 1); err == nil && len(best) > 0 {
				item.FeaturedMediaID = best[0]
				result.warn("no featured image set, picked media %d by keyword match", best[0])
			}
		}
		if missing := o.deps.Profile.MinImages - len(inBody); missing > 0 {
			body = o.topUpImages(ctx, item, body, missing, inBody, result)
		}
	}

	// Article structured data for posts, the FAQ JSON-LD's sibling.
	if item.Type == content.TypePost {
		var siteName string
		if o.deps.ClientCfg != nil {
			siteName = o.deps.ClientCfg.ExpectedWpSiteName
		}
		body = markup.EnsureArticleSchema(body, item, siteName, firstImageURL(item))
	}

	// Validation gate: every check runs, every failure is kept.
	verdict := gate.Run(&gate.Subject{Item: item, Body: body, Unresolved: unresolved}, gate.Options{
		MinImages:     o.deps.Profile.MinImages,
		MaxImages:     o.deps.Profile.MaxImages,
		FaqCountExact: faqCountFor(item, o.deps.Profile),
	})
	result.Failures = verdict.Failures
	result.State = StateValidated

	effective := o.opts.Status
	if !verdict.Passed {
		if effective == content.StatusPublish {
			effective = content.StatusDraft
			result.notice("validation failed, downgrading to draft")
		}
	}

	// Draft-first: nothing goes live without explicit confirmation, and
	// going live over already-live content gets its own callout.
	if effective == content.StatusPublish && !o.opts.Confirm {
		effective = content.StatusDraft
		if result.Mode == ModeUpdate && entity.Status == string(content.StatusPublish) {
			result.notice("%s: updating a live entity with status=publish requires --confirm, writing draft instead", NoticePublishConfirmationRequired)
		} else {
			result.notice("draft-first policy: status=publish requires --confirm, writing draft")
		}
	}
	result.StatusWritten = effective

	if o.opts.DryRun {
		result.notice("dry run: skipped WordPress write")
		return result
	}

	// Backup precedes the write and is fail-closed.
	if result.Mode == ModeUpdate {
		store := NewBackupStore(o.deps.Profile.BackupDir)
		path, err := store.Write(item.Type, entity)
		if err != nil {
			result.Err = &BackupError{Err: err}
			return result
		}
		result.BackupPath = path
		result.State = StateBackedUp
	}

	payload := wp.WritePayload{
		Title:         item.Title,
		Slug:          item.Slug,
		Status:        string(effective),
		Content:       body,
		Excerpt:       item.Excerpt,
		Date:          item.Date,
		FeaturedMedia: item.FeaturedMediaID,
		Meta:          wp.YoastMeta(item),
	}
	o.attachTaxonomy(ctx, item, &payload, result)

	var written *wp.RemoteEntity
	if result.Mode == ModeUpdate {
		written, err = o.deps.Client.Update(ctx, item.Type, entity.ID, payload)
	} else {
		written, err = o.deps.Client.Create(ctx, item.Type, payload)
	}
	if err != nil {
		result.Err = fmt.Errorf("writing %s %q: %w", item.Type, item.Slug, err)
		return result
	}
	result.EntityID = written.ID
	result.State = StateWritten

	// Read back and compare body signatures. A mismatch is reported,
	// never retried: blind retries on a failed write risk duplicates.
	got, err := o.deps.Resolver.ResolveByID(ctx, item.Type, written.ID)
	if err != nil {
		result.State = StateVerifyFailed
		result.notice("%s: read-back failed: %v", NoticeWriteVerificationFailed, err)
		return result
	}
	if bodySignature(got.BodyMarkup) != bodySignature(body) {
		result.State = StateVerifyFailed
		result.notice("%s: remote body does not match written content", NoticeWriteVerificationFailed)
		return result
	}
	result.State = StateVerified
	return result
}

func (o *Orchestrator) linkMap(ctx context.Context) (*links.Map, error) {
	if o.slugMap == nil {
		m, err := o.deps.Resolver.SlugMap(ctx)
		if err != nil {
			return nil, err
		}
		o.slugMap = m
	}
	var aliases map[string]string
	if o.deps.ClientCfg != nil {
		aliases = o.deps.ClientCfg.LinkAliases
	}
	return links.NewMap(o.slugMap, aliases), nil
}

// topUpImages pulls keyword-relevant library media into the body when
// the source file pins fewer images than the minimum. The mutation
// pass is re-run to place them; it is idempotent, so the blocks
// already present stay put.
func (o *Orchestrator) topUpImages(ctx context.Context, item *content.Item, body string, missing int, inBody []int, result *ItemResult) string {
	exclude := append(append([]int{}, inBody...), item.FeaturedMediaID)
	best, err := o.deps.Media.FindBest(ctx, item.KeywordSeed(), exclude, missing)
	if err != nil || len(best) == 0 {
		return body
	}
	for _, id := range best {
		url, alt, err := o.deps.Media.URLAndAlt(ctx, id)
		if err != nil {
			result.warn("could not fetch media %d: %v", id, err)
			continue
		}
		item.Images = append(item.Images, content.Image{MediaID: id, URL: url, Alt: alt})
	}
	out, report, err := markup.Apply(body, item, markup.Options{
		EnableTOC:        item.EnableTOC,
		TOCWordThreshold: o.deps.Profile.TOCWordThreshold,
		MinImages:        o.deps.Profile.MinImages,
		MaxImages:        o.deps.Profile.MaxImages,
	})
	if err != nil {
		result.warn("media top-up skipped: %v", err)
		return body
	}
	result.Warnings = append(result.Warnings, report.Warnings...)
	result.warn("pulled %d media item(s) from the library by keyword match", len(best))
	return out
}

func firstImageURL(item *content.Item) string {
	for _, img := range item.Images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}

// attachTaxonomy maps category and tag names to term ids. A term that
// cannot be resolved is reported and skipped rather than failing the
// item.
func (o *Orchestrator) attachTaxonomy(ctx context.Context, item *content.Item, payload *wp.WritePayload, result *ItemResult) {
	if o.deps.Tax == nil {
		return
	}
	for _, name := range item.Categories {
		id, err := o.deps.Tax.CategoryID(ctx, name)
		if err != nil || id == 0 {
			result.warn("could not resolve category %q", name)
			continue
		}
		payload.Categories = append(payload.Categories, id)
	}
	for _, name := range item.Tags {
		id, err := o.deps.Tax.TagID(ctx, name)
		if err != nil || id == 0 {
			result.warn("could not resolve tag %q", name)
			continue
		}
		payload.Tags = append(payload.Tags, id)
	}
}

func faqCountFor(item *content.Item, profile *config.Profile) int {
	if item.RequiredFAQQuestions > 0 {
		return item.RequiredFAQQuestions
	}
	return profile.FaqCountExact
}

func mergeMarkers(a, b []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(a)+len(b))
	for _, m := range append(append([]string{}, a...), b...) {
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

var signatureSpaceRe = regexp.MustCompile(`\s+`)

// bodySignature derives a whitespace-insensitive digest of body
// markup. WordPress normalizes whitespace on save, so a byte compare
// of written vs read-back content would always mismatch.
func bodySignature(body string) string {
	normalized := signatureSpaceRe.ReplaceAllString(strings.TrimSpace(body), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
