package anacrolix

import (
	"fmt"
	"net/url"

	"github.com/anacrolix/torrent"
)

// mapPiecePriority maps the 0-7 download priority scale onto the client
// library's coarser piece priorities. 0 stays do-not-download; 7 is the
// urgent tier; everything between lands on the normal/readahead tiers.
func mapPiecePriority(p int) torrent.PiecePriority {
	switch {
	case p <= 0:
		return torrent.PiecePriorityNone
	case p >= 7:
		return torrent.PiecePriorityNow
	case p >= 5:
		return torrent.PiecePriorityReadahead
	default:
		return torrent.PiecePriorityNormal
	}
}

func buildMagnet(infoHash, name string) string {
	uri := fmt.Sprintf("magnet:?xt=urn:btih:%s", infoHash)
	if name != "" {
		uri += "&dn=" + url.QueryEscape(name)
	}
	return uri
}
