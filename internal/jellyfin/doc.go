// Package jellyfin is the bridge's client for the Jellyfin REST API.
//
// It covers only the endpoints the bridge needs: a liveness probe, server
// info, one list query per entity kind, the scalar category queries and the
// control actions reachable from inbound commands.
//
// Every response is decoded into a typed struct and its optional fields are
// defaulted in a single normalize step per kind, then converted into a
// kind-neutral entity.Item. No call retries; a failure simply fails that
// call and is reported as one of the sentinel errors in errors.go.
//
// # Usage
//
//	client := jellyfin.New(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, cfg.GetJellyfinTimeout())
//	if err := client.Ping(ctx); err != nil {
//	    return err
//	}
//	items, err := client.List(ctx, entity.KindSession)
package jellyfin
