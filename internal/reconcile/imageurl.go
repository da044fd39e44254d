package reconcile

import "net/url"

// resolveImageURL makes an extracted image URL absolute. Protocol-relative
// URLs get an https scheme; relative paths resolve against the origin of the
// product's own page. Anything that fails to parse is returned as-is rather
// than failing the item.
func resolveImageURL(img, pageURL string) string {
	if img == "" {
		return ""
	}
	u, err := url.Parse(img)
	if err != nil {
		return img
	}
	if u.IsAbs() {
		return img
	}
	if u.Host != "" { // protocol-relative, e.g. //cdn.example/img.jpg
		return "https:" + img
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return img
	}
	return base.ResolveReference(u).String()
}
