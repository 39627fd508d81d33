package proxy

import (
	"html/template"
	"strings"
)

// InjectionVersion tags the embedded payload so the injection contract can
// be tested independently of the surrounding proxy logic.
const InjectionVersion = "2"

// selectionStyle forces text selectability on restrictive pages and styles
// the highlight affordances used in selection mode.
const selectionStyle = `<style data-pressview-version="` + InjectionVersion + `">
* {
  user-select: text !important;
  -webkit-user-select: text !important;
  -moz-user-select: text !important;
  -ms-user-select: text !important;
}
.wp-selection-highlight {
  outline: 2px solid #0073aa !important;
  cursor: pointer !important;
  position: relative !important;
  transition: all 0.2s ease !important;
}
.wp-selection-highlight:hover {
  outline: 3px solid #00a0d2 !important;
  background-color: rgba(0, 115, 170, 0.05) !important;
}
.wp-selection-highlight::after {
  content: "Click to select" !important;
  position: absolute !important;
  top: -20px !important;
  right: 0 !important;
  background: #0073aa !important;
  color: white !important;
  padding: 2px 8px !important;
  font-size: 10px !important;
  border-radius: 3px !important;
  opacity: 0 !important;
  transition: opacity 0.2s !important;
  z-index: 9999999 !important;
  pointer-events: none !important;
}
.wp-selection-highlight:hover::after {
  opacity: 1 !important;
}
</style>`

// selectionScript implements the in-frame half of the selection protocol:
// selection-mode toggling over postMessage, WordPress element highlighting,
// click-to-select with post-ID extraction, and free-text capture with
// surrounding context. State survives in-frame navigation via
// sessionStorage.
const selectionScript = `<script data-pressview-version="` + InjectionVersion + `">
(function() {
  var selectionModeEnabled = false;

  window.addEventListener("message", function(event) {
    if (event.data && event.data.type === "selection_mode_change") {
      selectionModeEnabled = !!event.data.enabled;
      try {
        sessionStorage.setItem("selectionModeActive", String(selectionModeEnabled));
      } catch (e) {}
      if (selectionModeEnabled) {
        highlightWordPressElements();
      } else {
        removeWordPressHighlights();
      }
    }
  });

  var wpSelectors = [
    "article", ".post", ".page", ".wp-block", ".entry-content",
    ".post-content", ".content-area", ".entry",
    ".entry-title", ".post-title", "h1.title", ".site-title",
    ".wp-post-image", ".attachment-post-thumbnail",
    ".nav-links", ".post-navigation",
    ".wp-block-paragraph", ".wp-block-image", ".wp-block-heading",
    ".wp-block-gallery", ".wp-block-quote", ".wp-block-button",
    ".comment", ".comment-body", ".comment-content"
  ];

  function highlightWordPressElements() {
    wpSelectors.forEach(function(selector) {
      try {
        document.querySelectorAll(selector).forEach(function(el) {
          el.classList.add("wp-selection-highlight");
          el.addEventListener("click", handleElementClick);
        });
      } catch (e) {}
    });
  }

  function removeWordPressHighlights() {
    document.querySelectorAll(".wp-selection-highlight").forEach(function(el) {
      el.classList.remove("wp-selection-highlight");
      el.removeEventListener("click", handleElementClick);
    });
  }

  function handleElementClick(e) {
    if (!selectionModeEnabled) return;
    e.preventDefault();
    e.stopPropagation();

    var element = e.currentTarget;
    var postId = extractElementPostId(element) || extractPostIdFromUrl(window.location.href);

    window.parent.postMessage({
      type: "content_selection",
      elementType: element.tagName.toLowerCase(),
      content: element.textContent.trim().substring(0, 150),
      postId: postId,
      url: window.location.href,
      timestamp: Date.now(),
      metadata: {
        elementId: element.id || null,
        elementClasses: Array.prototype.slice.call(element.classList).join(" "),
        wpBlockType: blockType(element)
      }
    }, "*");

    element.style.outline = "3px solid #00a0d2";
    setTimeout(function() { element.style.outline = ""; }, 1500);
  }

  function extractElementPostId(element) {
    var m;
    if (element.id && (m = element.id.match(/post-([0-9]+)/))) return m[1];
    var cls = Array.prototype.slice.call(element.classList || []);
    for (var i = 0; i < cls.length; i++) {
      if ((m = cls[i].match(/^postid-([0-9]+)$/))) return m[1];
    }
    if (element.dataset) {
      if (element.dataset.postId) return element.dataset.postId;
      if (element.dataset.id) return element.dataset.id;
    }
    if (element.tagName === "A" && element.href) {
      if ((m = element.href.match(/post=([0-9]+)/))) return m[1];
      if ((m = element.href.match(/\/([0-9]+)\/?$/))) return m[1];
    }
    // Walk up to three ancestors before giving up.
    var parent = element.parentElement;
    for (var depth = 0; parent && depth < 3; depth++) {
      var parentId = extractElementPostId(parent);
      if (parentId) return parentId;
      parent = parent.parentElement;
    }
    return null;
  }

  function extractPostIdFromUrl(url) {
    var patterns = [/[?&]p=([0-9]+)/, /\/pages?\/([0-9]+)\/?/, /\/posts?\/([0-9]+)\/?/, /\/([0-9]+)\/?$/];
    for (var i = 0; i < patterns.length; i++) {
      var m = url.match(patterns[i]);
      if (m) return m[1];
    }
    return extractPostIdFromDom();
  }

  function extractPostIdFromDom() {
    var m = document.body.className.match(/postid-([0-9]+)/);
    if (m) return m[1];

    var articles = document.querySelectorAll("article[id]");
    for (var i = 0; i < articles.length; i++) {
      if ((m = articles[i].id.match(/post-([0-9]+)/))) return m[1];
    }

    var apiLinks = document.querySelectorAll("link[rel='https://api.w.org/']");
    if (apiLinks.length > 0) {
      var href = apiLinks[0].getAttribute("href") || "";
      if ((m = href.match(/\/(posts|pages)\/([0-9]+)/))) return m[2];
    }

    var canonical = document.querySelector("link[rel='canonical']");
    if (canonical) {
      var parts = (canonical.getAttribute("href") || "").split("/").filter(Boolean);
      var slug = parts[parts.length - 1];
      if (slug) {
        var kind = document.body.className.indexOf("page") !== -1 ? "page" : "post";
        return "slug:" + kind + ":" + slug;
      }
    }
    return null;
  }

  function blockType(element) {
    var cur = element;
    for (var depth = 0; cur && depth < 4; depth++) {
      var cls = Array.prototype.slice.call(cur.classList || []);
      for (var i = 0; i < cls.length; i++) {
        if (cls[i].indexOf("wp-block-") === 0) return cls[i];
      }
      cur = cur.parentElement;
    }
    return null;
  }

  document.addEventListener("mouseup", function() {
    var selection = window.getSelection();
    var text = selection ? selection.toString().trim() : "";
    if (!text || window.parent === window) return;

    window.parent.postMessage({
      type: "WP_TEXT_SELECTION",
      text: text,
      context: selectionContext(selection, text),
      postId: extractPostIdFromUrl(window.location.href),
      url: window.location.href,
      timestamp: Date.now()
    }, "*");
  });

  function selectionContext(selection, text) {
    try {
      var container = selection.getRangeAt(0).commonAncestorContainer;
      if (container.nodeType === 3) container = container.parentElement;
      var full = container.textContent;
      var idx = full.indexOf(text);
      if (idx === -1) return { before: "", after: "" };
      return {
        before: full.substring(Math.max(0, idx - 100), idx).trim(),
        after: full.substring(idx + text.length, Math.min(full.length, idx + text.length + 100)).trim()
      };
    } catch (e) {
      return { before: "", after: "" };
    }
  }

  function init() {
    try {
      if (sessionStorage.getItem("selectionModeActive") === "true") {
        selectionModeEnabled = true;
        highlightWordPressElements();
      }
    } catch (e) {}
    if (window.parent !== window) {
      window.parent.postMessage({ type: "wp_selection_ready" }, "*");
    }
  }

  if (document.readyState === "loading") {
    window.addEventListener("DOMContentLoaded", init);
  } else {
    init();
  }
})();
</script>`

// InjectionPayload returns the full style+script block inserted into
// proxied HTML documents.
func InjectionPayload() string {
	return selectionStyle + selectionScript
}

var iframeTemplate = template.Must(template.New("iframe").Parse(`<html>
<head>
<title>WordPress Viewer</title>
<style>
body, html { margin: 0; padding: 0; height: 100%; overflow: hidden; }
iframe { width: 100%; height: 100%; border: 0; }
</style>
` + selectionScript + `
<script>
window.addEventListener("message", function(event) {
  window.parent.postMessage(event.data, "*");
});
</script>
</head>
<body>
<iframe src="{{.}}" sandbox="allow-scripts allow-forms" referrerpolicy="no-referrer"></iframe>
</body>
</html>`))

// IframeDocument renders the wrapper page for the direct-iframe embedding
// strategy, used when header stripping is blocked by the upstream site. The
// wrapper carries its own copy of the tracking script plus a relay that
// forwards the frame's postMessages up to the dashboard.
func IframeDocument(target string) (string, error) {
	var b strings.Builder
	if err := iframeTemplate.Execute(&b, target); err != nil {
		return "", err
	}
	return b.String(), nil
}
