// Package itemdex is an embedded Go client for the itemdex item store.
//
// Items are written to the primary store first (PostgreSQL or SQLite) and
// mirrored into the search index (Redis with RediSearch, or bleve). A failed
// index write never fails the call; Reconcile repairs the index.
//
//	client, _ := itemdex.New(ctx,
//	    itemdex.WithSQLite("data/items.db"),
//	    itemdex.WithBleve("data/index"),
//	)
//	defer client.Close()
//
//	boat, _ := client.Create(ctx, "Ocean Explorer", "Sailboat", 2020)
//	res, _ := client.Search(ctx, "ocean", itemdex.SearchOptions{Category: "Sailboat"})
package itemdex
