package main

import (
	"fmt"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/fs"
)

// Run executes the cache clear command.
func (c *CacheClearCmd) Run(deps *Dependencies) error {
	cache, err := fs.NewCache(deps.CacheDir)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	if err := cache.Clear(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Cleared cache %s\n", cache.Dir())
	return nil
}

// Run executes the cache rm command.
func (c *CacheRmCmd) Run(deps *Dependencies) error {
	cache, err := fs.NewCache(deps.CacheDir)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
		return err
	}

	for _, url := range c.URLs {
		if err := cache.Remove(deps.Ctx, url); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", harvest.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Removed %s\n", url)
	}
	return nil
}
