// Package transport provides the network connectivity shared by feed fetching
// and catalog publishing.
//
// A Client either dials directly or routes every connection through a SOCKS5
// proxy (golang.org/x/net/proxy). The same Client produces the *http.Client
// used by the fetcher and the dial function used by the FTP publisher, so a
// configured proxy covers both the feed requests and the publish session,
// including FTP passive data connections.
//
// # Proxy verification
//
// CheckConnection performs a SOCKS5 greeting against the proxy before a run
// so that a wrong or missing proxy is reported up front instead of as a
// transport failure on every source:
//
//	client, err := transport.NewClient("127.0.0.1:1080", 30*time.Second)
//	if err != nil {
//		return err
//	}
//	if status := client.CheckConnection(ctx); status != transport.ProxyStatusOK {
//		return status.Error()
//	}
package transport
