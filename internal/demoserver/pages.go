package demoserver

// PageVersion represents a specific version of a page.
type PageVersion struct {
	HTML        string
	ContentType string
	Headers     map[string]string
}

// PageDefinition holds all versions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion

	// Volatile injects per-request noise (timestamps, session tokens)
	// into the HTML so change detection can be shown to ignore it.
	Volatile bool
}

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getNewsPage(),
		getPricingPage(),
		getStatusPage(),
	}
}

// ===== HOME PAGE =====
func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Home page with basic navigation",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Demo Site - Home v1</title>
</head>
<body>
    <h1>Welcome to Demo Site</h1>
    <nav class="main-nav">
        <a href="/">Home</a> |
        <a href="/news">News</a> |
        <a href="/pricing">Pricing</a> |
        <a href="/status">Status</a>
    </nav>
    <p>Version 1 - Basic home page</p>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Demo Site - Home v2</title>
</head>
<body>
    <h1>Welcome to Demo Site</h1>
    <nav class="main-nav">
        <a href="/">Home</a> |
        <a href="/news">News</a> |
        <a href="/pricing">Pricing</a> |
        <a href="/status">Status</a>
    </nav>
    <p>Version 2 - Redesigned landing section</p>
    <section class="hero">
        <h2>Now with real-time page monitoring</h2>
    </section>
</body>
</html>`,
			},
		},
	}
}

// ===== NEWS PAGE =====
func getNewsPage() PageDefinition {
	return PageDefinition{
		Path:        "/news",
		Description: "News listing whose items change between versions",
		Volatile:    true,
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>News</title></head>
<body>
    <h1>Latest News</h1>
    <ul class="news-list">
        <li>Service launched to the public</li>
        <li>First thousand users signed up</li>
    </ul>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>News</title></head>
<body>
    <h1>Latest News</h1>
    <ul class="news-list">
        <li>Service launched to the public</li>
        <li>First thousand users signed up</li>
        <li>Scheduled maintenance this weekend</li>
    </ul>
</body>
</html>`,
			},
			3: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>News</title></head>
<body>
    <h1>Latest News</h1>
    <ul class="news-list">
        <li>Maintenance completed ahead of schedule</li>
        <li>New pricing tiers announced</li>
    </ul>
</body>
</html>`,
			},
		},
	}
}

// ===== PRICING PAGE =====
func getPricingPage() PageDefinition {
	return PageDefinition{
		Path:        "/pricing",
		Description: "Pricing table for price-change detection",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Pricing</title></head>
<body>
    <h1>Pricing</h1>
    <table class="pricing">
        <tr><td>Basic</td><td>$5.00/mo</td></tr>
        <tr><td>Pro</td><td>$15.00/mo</td></tr>
    </table>
</body>
</html>`,
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Pricing</title></head>
<body>
    <h1>Pricing</h1>
    <table class="pricing">
        <tr><td>Basic</td><td>$7.00/mo</td></tr>
        <tr><td>Pro</td><td>$15.00/mo</td></tr>
        <tr><td>Enterprise</td><td>Contact us</td></tr>
    </table>
</body>
</html>`,
			},
		},
	}
}

// ===== STATUS PAGE =====
func getStatusPage() PageDefinition {
	return PageDefinition{
		Path:        "/status",
		Description: "Status page that only changes its volatile parts",
		Volatile:    true,
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Status</title></head>
<body>
    <h1>System Status</h1>
    <p class="status-ok">All systems operational</p>
</body>
</html>`,
				Headers: map[string]string{
					"Cache-Control": "no-store",
				},
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Status</title></head>
<body>
    <h1>System Status</h1>
    <p class="status-degraded">Degraded performance on the API</p>
</body>
</html>`,
				Headers: map[string]string{
					"Cache-Control": "no-store",
				},
			},
		},
	}
}
