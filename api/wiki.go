package api

import (
	"context"
	"errors"

	"github.com/open-cli-collective/wtconv/pkg/wt"
)

// PageSourceGetter is the part of Client the adapters need.
type PageSourceGetter interface {
	GetPageSource(ctx context.Context, title string) (*Page, error)
}

// DataAccess serves template sources from the wiki. The context is fixed
// at construction because the conversion core does not carry one.
type DataAccess struct {
	ctx    context.Context
	client PageSourceGetter
}

// NewDataAccess returns a wt.DataAccess backed by client.
func NewDataAccess(ctx context.Context, client PageSourceGetter) *DataAccess {
	return &DataAccess{ctx: ctx, client: client}
}

// FetchTemplateSource implements wt.DataAccess. A missing page is not an
// error.
func (d *DataAccess) FetchTemplateSource(title string) (string, bool, error) {
	page, err := d.client.GetPageSource(d.ctx, title)
	if err != nil {
		var apiErr *ErrorResponse
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return "", false, nil
		}
		return "", false, err
	}
	return page.Source, true, nil
}

// PageConfig adapts a fetched page to wt.PageConfig.
type PageConfig struct {
	page     *Page
	language string
}

// NewPageConfig returns the page configuration for page. language may be
// empty to use the site default.
func NewPageConfig(page *Page, language string) *PageConfig {
	return &PageConfig{page: page, language: language}
}

// Title implements wt.PageConfig.
func (p *PageConfig) Title() string { return p.page.Title }

// PageLanguage implements wt.PageConfig.
func (p *PageConfig) PageLanguage() string { return p.language }

// RevisionContent implements wt.PageConfig.
func (p *PageConfig) RevisionContent() wt.PageContent {
	return wt.StaticPageContent{wt.MainSlot: p.page.Source}
}
