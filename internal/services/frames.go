package services

import (
	"fmt"
	"strings"
)

// FrameSnapshot is a borrowed view of one browsing context inside the
// DetranNet frameset. The session owns the frames; snapshots are plain data
// and stay valid after the session closes.
type FrameSnapshot struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
}

// FrameClass classifies what a frame's visible text holds after submission.
type FrameClass int

const (
	// FrameUnknown means the frame shows neither vehicle data nor an
	// affirmative "no record" message (e.g. the page is still updating).
	FrameUnknown FrameClass = iota
	// FrameData means the frame rendered the vehicle data page.
	FrameData
	// FrameNotFound means the source affirmatively reported no matching
	// record. This is a legitimate outcome, never an error.
	FrameNotFound
)

var (
	dataMarkers     = []string{"Dados do Veic", "Marca/Modelo"}
	notFoundMarkers = []string{"Nenhum veículo encontrado", "não confere"}
)

// ClassifyFrameText decides whether a frame's text holds the result payload.
// Data markers win over not-found markers when both appear.
func ClassifyFrameText(text string) FrameClass {
	for _, marker := range dataMarkers {
		if strings.Contains(text, marker) {
			return FrameData
		}
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(text, marker) {
			return FrameNotFound
		}
	}
	return FrameUnknown
}

// SelectDataFrame picks the frame holding the result payload. The frame at
// preferredIndex (the one the plate was typed into) is tested first because
// legacy ASP pages usually reload the answer into the same frame; otherwise
// the scan follows the session's natural frame order and the first match
// wins. No scoring.
func SelectDataFrame(snapshots []FrameSnapshot, preferredIndex int) (*FrameSnapshot, FrameClass) {
	if preferredIndex >= 0 && preferredIndex < len(snapshots) {
		if class := ClassifyFrameText(snapshots[preferredIndex].Text); class != FrameUnknown {
			return &snapshots[preferredIndex], class
		}
	}
	for i := range snapshots {
		if class := ClassifyFrameText(snapshots[i].Text); class != FrameUnknown {
			return &snapshots[i], class
		}
	}
	return nil, FrameUnknown
}

// snapshotFramesScript walks the window and every reachable frame in
// document order, capturing name, URL, visible text and markup. Cross-origin
// frames keep their slot as an empty snapshot so indices stay aligned with
// the fill script's frame walk.
const snapshotFramesScript = `(() => {
	const frames = [];
	const walk = (win) => {
		let name = '', url = '', text = '', html = '', reachable = true;
		try {
			name = win.name || '';
			url = win.location.href;
			const doc = win.document;
			if (doc && doc.body) {
				text = doc.body.innerText || '';
				html = doc.documentElement ? doc.documentElement.outerHTML : '';
			}
		} catch (e) {
			reachable = false;
		}
		frames.push({index: frames.length, name: name, url: url, text: text, html: html});
		if (!reachable) return;
		for (let i = 0; i < win.frames.length; i++) {
			walk(win.frames[i]);
		}
	};
	walk(window);
	return frames;
})()`

// submitResult is the outcome of the fill-and-submit script.
type submitResult struct {
	Found      bool   `json:"found"`
	FrameIndex int    `json:"frameIndex"`
	FrameName  string `json:"frameName"`
	Clicked    bool   `json:"clicked"`
}

// fillPlateScript locates the frame exposing input[name="placa"], sets the
// value and dispatches the input/change/blur events the host page's own
// validation listens on, then tries the sibling submit affordance (an image
// input or clickable img following the field). When no affordance exists it
// focuses the input so the caller can send Enter instead.
func fillPlateScript(plate string) string {
	return fmt.Sprintf(`(() => {
	const sel = 'input[name="placa"]';
	let counter = {n: -1};
	const locate = (win) => {
		counter.n++;
		const here = counter.n;
		let el = null;
		try {
			el = win.document ? win.document.querySelector(sel) : null;
		} catch (e) {
			return null;
		}
		if (el) return {win: win, el: el, index: here};
		for (let i = 0; i < win.frames.length; i++) {
			const hit = locate(win.frames[i]);
			if (hit) return hit;
		}
		return null;
	};
	const hit = locate(window);
	if (!hit) return {found: false, frameIndex: -1, frameName: '', clicked: false};
	const el = hit.el;
	const Ev = hit.win.Event || Event;
	el.value = '';
	el.value = %q;
	el.dispatchEvent(new Ev('input', {bubbles: true}));
	el.dispatchEvent(new Ev('change', {bubbles: true}));
	el.dispatchEvent(new Ev('blur', {bubbles: true}));
	let next = el.nextElementSibling;
	while (next) {
		if ((next.tagName === 'INPUT' && next.type === 'image') ||
			(next.tagName === 'IMG' && (next.onclick || next.closest('a')))) {
			next.click();
			return {found: true, frameIndex: hit.index, frameName: hit.win.name || '', clicked: true};
		}
		next = next.nextElementSibling;
	}
	el.focus();
	return {found: true, frameIndex: hit.index, frameName: hit.win.name || '', clicked: false};
})()`, plate)
}

// expandDebtsScript clicks the "Listagem de Débitos" header when present so
// the itemized debt panel loads. Returns whether anything was clicked; the
// panel load itself is asynchronous and unsignaled.
const expandDebtsScript = `(() => {
	const find = (win) => {
		let els = [];
		try {
			els = win.document ? win.document.querySelectorAll('span, td, div, a, font, b') : [];
		} catch (e) {
			return null;
		}
		for (const el of els) {
			if (el.innerText && el.innerText.includes('Listagem de Débitos')) {
				return el;
			}
		}
		for (let i = 0; i < win.frames.length; i++) {
			const hit = find(win.frames[i]);
			if (hit) return hit;
		}
		return null;
	};
	const header = find(window);
	if (!header) return false;
	header.click();
	return true;
})()`
