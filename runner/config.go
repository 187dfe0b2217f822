package runner

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultStoreLabel            = "MongoDB server"
	defaultGenre                 = "Fiction"
	defaultPublishedAfter        = 1950
	defaultAuthor                = "George Orwell"
	defaultUpdateTitle           = "1984"
	defaultUpdatePrice           = 11.99
	defaultDeleteTitle           = "Moby Dick"
	defaultInStockPublishedAfter = 1980
	defaultProjectionPreview     = 3
	defaultSortLimit             = 5
	defaultPage                  = 2
	defaultPageSize              = 5
	defaultDecadeWidth           = 10
	defaultOperationTimeout      = 10 * time.Second
)

// Config holds the parameters of the query batch.
type Config struct {
	// StoreLabel names the store in the "Connected to" line.
	StoreLabel string

	Genre          string
	PublishedAfter int
	Author         string

	UpdateTitle string
	UpdatePrice float64
	DeleteTitle string

	InStockPublishedAfter int

	// ProjectionPreview is the number of projected documents printed.
	ProjectionPreview int
	SortLimit         int64
	Page              int64
	PageSize          int64
	DecadeWidth       int64

	// OperationTimeout bounds each step, 0 disables the timeout.
	OperationTimeout time.Duration
}

// DefaultConfig returns the parameters of the PLP bookstore assignment.
func DefaultConfig() Config {
	return Config{
		StoreLabel:            defaultStoreLabel,
		Genre:                 defaultGenre,
		PublishedAfter:        defaultPublishedAfter,
		Author:                defaultAuthor,
		UpdateTitle:           defaultUpdateTitle,
		UpdatePrice:           defaultUpdatePrice,
		DeleteTitle:           defaultDeleteTitle,
		InStockPublishedAfter: defaultInStockPublishedAfter,
		ProjectionPreview:     defaultProjectionPreview,
		SortLimit:             defaultSortLimit,
		Page:                  defaultPage,
		PageSize:              defaultPageSize,
		DecadeWidth:           defaultDecadeWidth,
		OperationTimeout:      defaultOperationTimeout,
	}
}

// Validate reports every invalid parameter, each wrapped with ErrInvalidConfig.
func (c Config) Validate() error {
	errs := make([]error, 0)

	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Genre == "" {
		invalid("empty genre")
	}

	if c.Author == "" {
		invalid("empty author")
	}

	if c.UpdateTitle == "" {
		invalid("empty update title")
	}

	if c.DeleteTitle == "" {
		invalid("empty delete title")
	}

	if c.ProjectionPreview < 0 {
		invalid("negative projection preview %d", c.ProjectionPreview)
	}

	if c.SortLimit < 1 {
		invalid("sort limit %d must be at least 1", c.SortLimit)
	}

	if c.Page < 1 {
		invalid("page %d must be at least 1", c.Page)
	}

	if c.PageSize < 1 {
		invalid("page size %d must be at least 1", c.PageSize)
	}

	if c.DecadeWidth < 1 {
		invalid("decade width %d must be at least 1", c.DecadeWidth)
	}

	if c.OperationTimeout < 0 {
		invalid("negative operation timeout %s", c.OperationTimeout)
	}

	return errors.Join(errs...)
}
