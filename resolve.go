package mongokit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"
)

// Resolve translates the configuration into a connection target and the
// driver client options for it. It is computed once per connection attempt
// and performs no network I/O; its only side effect is reading TLS material
// from disk when certificate files are configured.
//
// The target is the URL field verbatim when set, otherwise a string built
// from the discrete host/port/credential fields. Options encoded in the
// target's query string override the discrete fields.
func (c Config) Resolve() (string, *options.ClientOptions, error) {
	if err := c.Validate(); err != nil {
		return "", nil, err
	}

	opts := options.Client()

	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.MaxPoolSize)
	}
	if c.MinPoolSize > 0 {
		opts.SetMinPoolSize(c.MinPoolSize)
	}
	if c.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(c.MaxConnIdleTime)
	}
	if c.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.ConnectTimeout)
	}
	if c.Timeout > 0 {
		opts.SetTimeout(c.Timeout)
	}
	if c.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(c.ServerSelectionTimeout)
	}
	if c.HeartbeatInterval > 0 {
		opts.SetHeartbeatInterval(c.HeartbeatInterval)
	}
	if c.ReplicaSet != "" {
		opts.SetReplicaSet(c.ReplicaSet)
	}
	if c.LocalThreshold > 0 {
		opts.SetLocalThreshold(c.LocalThreshold)
	}
	if c.Direct != nil {
		opts.SetDirect(*c.Direct)
	}
	if c.RetryWrites != nil {
		opts.SetRetryWrites(*c.RetryWrites)
	}
	if c.RetryReads != nil {
		opts.SetRetryReads(*c.RetryReads)
	}

	if c.WriteConcernW != "" || c.Journal != nil {
		opts.SetWriteConcern(buildWriteConcern(c.WriteConcernW, c.Journal))
	}
	if c.ReadPreference != "" {
		rp, err := parseReadPreference(c.ReadPreference)
		if err != nil {
			return "", nil, err
		}
		opts.SetReadPreference(rp)
	}
	if c.ReadConcern != "" {
		rc, err := parseReadConcern(c.ReadConcern)
		if err != nil {
			return "", nil, err
		}
		opts.SetReadConcern(rc)
	}

	target := c.URL
	if target == "" {
		target = c.buildURI()
	}

	// Applied last so options encoded in the target's query string override
	// the discrete fields above. A malformed target is not rejected here; the
	// driver surfaces the deferred parse error at connect time.
	opts.ApplyURI(target)

	// The TLS config built from the discrete fields replaces whatever ApplyURI
	// derived from the query string, since that one cannot carry the local
	// certificate material. Without discrete material the driver's own config
	// is kept when it produced one.
	if c.tlsRequested(target) && (opts.TLSConfig == nil || c.hasTLSMaterial()) {
		tlsCfg, err := c.buildTLSConfig()
		if err != nil {
			return "", nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	// ApplyURI resolves the credential source from the URI's own authSource
	// parameter or its path database. The discrete field fills the gap only
	// when the query string left it unspecified.
	if c.AuthSource != "" && opts.Auth != nil && !queryNamesAuthSource(target) {
		opts.Auth.AuthSource = c.AuthSource
	}

	return target, opts, nil
}

// buildURI renders mongodb://[user:password@]host:port[/database] from the
// discrete fields. Credentials are percent-encoded as the URI grammar
// requires. Host and port are not validated; an empty host or zero port
// produces a target the driver rejects at connect time.
func (c Config) buildURI() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
	}
	if c.User != "" && c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.Database != "" {
		u.Path = "/" + c.Database
	}
	return u.String()
}

// tlsRequested decides whether the connection uses TLS. An explicit tls or
// ssl value in the target's query string wins over everything else; otherwise
// the mongodb+srv scheme implies TLS, and the discrete flag is the fallback.
func (c Config) tlsRequested(target string) bool {
	if v, ok := queryTLSValue(target); ok {
		return v
	}
	if strings.HasPrefix(target, "mongodb+srv://") {
		return true
	}
	return c.TLSEnabled
}

// splitTarget separates a connection target's path and raw query without
// parsing its authority. net/url rejects comma-separated host lists such as
// mongodb://h1:27017,h2/db, where the text after the authority's last colon
// is not a plain port, so the split walks the string instead: the authority
// ends at the first slash or question mark after the scheme separator.
// Credentials in the authority are percent-encoded per the connection string
// grammar, so neither byte can appear before the authority ends.
func splitTarget(target string) (path, rawQuery string) {
	rest := target
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	i := strings.IndexAny(rest, "/?")
	if i < 0 {
		return "", ""
	}
	if rest[i] == '?' {
		return "", rest[i+1:]
	}
	rest = rest[i:]
	if j := strings.IndexByte(rest, '?'); j >= 0 {
		return rest[:j], rest[j+1:]
	}
	return rest, ""
}

// queryTLSValue extracts an explicit tls or ssl boolean from the target's
// query string. Values other than "true" and "false" are ignored and left
// for the driver's own URI validation. When conflicting values appear, true
// wins so no connection is silently downgraded.
func queryTLSValue(target string) (value, found bool) {
	_, rawQuery := splitTarget(target)
	params, _ := url.ParseQuery(rawQuery)
	for key, vals := range params {
		if !strings.EqualFold(key, "tls") && !strings.EqualFold(key, "ssl") {
			continue
		}
		for _, val := range vals {
			switch strings.ToLower(val) {
			case "true":
				return true, true
			case "false":
				value, found = false, true
			}
		}
	}
	return value, found
}

// hasTLSMaterial reports whether any discrete TLS field beyond the on/off
// flag is set.
func (c Config) hasTLSMaterial() bool {
	return c.TLSInsecure ||
		c.TLSCAFile != "" ||
		c.TLSCertFile != "" ||
		c.TLSKeyFile != "" ||
		c.TLSCRLFile != "" ||
		len(c.TLSCiphers) > 0
}

// queryNamesAuthSource reports whether the target's query string carries an
// authSource parameter. URI option names are matched case-insensitively, the
// same way the driver matches them.
func queryNamesAuthSource(target string) bool {
	_, rawQuery := splitTarget(target)
	params, _ := url.ParseQuery(rawQuery)
	for key := range params {
		if strings.EqualFold(key, "authSource") {
			return true
		}
	}
	return false
}

// parseReadPreference maps a configured mode name to a driver read preference.
func parseReadPreference(mode string) (*readpref.ReadPref, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "primary":
		return readpref.Primary(), nil
	case "primarypreferred":
		return readpref.PrimaryPreferred(), nil
	case "secondary":
		return readpref.Secondary(), nil
	case "secondarypreferred":
		return readpref.SecondaryPreferred(), nil
	case "nearest":
		return readpref.Nearest(), nil
	default:
		return nil, fmt.Errorf("%w: unknown read preference %q", ErrInvalidConfig, mode)
	}
}

// parseReadConcern maps a configured level name to a driver read concern.
func parseReadConcern(level string) (*readconcern.ReadConcern, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "local":
		return readconcern.Local(), nil
	case "majority":
		return readconcern.Majority(), nil
	case "available":
		return readconcern.Available(), nil
	case "linearizable":
		return readconcern.Linearizable(), nil
	case "snapshot":
		return readconcern.Snapshot(), nil
	default:
		return nil, fmt.Errorf("%w: unknown read concern %q", ErrInvalidConfig, level)
	}
}

// buildWriteConcern builds a driver write concern from the configured w value
// and journal flag. A numeric w is the required acknowledgement count; any
// other non-empty value is passed through as "majority" or a custom tag set
// name for the server to interpret.
func buildWriteConcern(w string, journal *bool) *writeconcern.WriteConcern {
	wc := &writeconcern.WriteConcern{Journal: journal}
	if w == "" {
		return wc
	}
	if n, err := strconv.Atoi(w); err == nil {
		wc.W = n
	} else {
		wc.W = w
	}
	return wc
}

// redactTarget strips the password from a connection target so it is safe to
// log. Targets net/url cannot parse, multi-host lists in particular, have
// their userinfo located by hand; anything less recognizable is masked
// entirely.
func redactTarget(target string) string {
	u, err := url.Parse(target)
	if err == nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}

	i := strings.Index(target, "://")
	if i <= 0 {
		return "(unparseable target)"
	}
	start := i + 3
	end := len(target)
	if j := strings.IndexAny(target[start:], "/?"); j >= 0 {
		end = start + j
	}
	auth := target[start:end]
	at := strings.LastIndexByte(auth, '@')
	if at < 0 {
		// No userinfo means no password to leak.
		return target
	}
	colon := strings.IndexByte(auth[:at], ':')
	if colon < 0 {
		return target
	}
	return target[:start+colon+1] + "xxxxx" + target[start+at:]
}
