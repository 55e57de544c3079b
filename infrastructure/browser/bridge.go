package browser

// targetAttr marks the target of a forwarded event until the Go side has
// found it in its snapshot of the page.
const targetAttr = "data-capture-target"

// bridgeScript installs window.__capture in every document of a page. It
// forwards DOM events to the exposed __captureDispatch binding as
// (kind, path, key, token), where path is the element-child index path from
// the document element to the event target and token is the value of the
// data-capture-target attribute set on the target for pointer events.
const bridgeScript = `(() => {
  if (window.__capture) return;
  const domEvents = {
    pointermove: 'mouseover',
    pointerleave: 'mouseout',
    click: 'click',
    keydown: 'keydown',
  };
  const intercept = { pointermove: true, click: true };
  const tagged = { pointermove: true, click: true };
  const handlers = {};
  const targets = new Map();
  let seq = 0;

  const tag = (el) => {
    const token = 't' + (++seq);
    el.setAttribute('data-capture-target', token);
    targets.set(token, el);
    if (targets.size > 256) targets.delete(targets.keys().next().value);
    return token;
  };

  const pathOf = (el) => {
    const path = [];
    while (el && el !== document.documentElement) {
      const parent = el.parentElement;
      if (!parent) return null;
      path.unshift(Array.prototype.indexOf.call(parent.children, el));
      el = parent;
    }
    return el ? path : null;
  };

  const nodeAt = (path) => {
    let el = document.documentElement;
    for (const i of path) {
      if (!el) return null;
      el = el.children[i];
    }
    return el || null;
  };

  const overlay = (handle) => document.querySelector('[data-capture-overlay="' + handle + '"]');

  window.__capture = {
    listen(kind) {
      if (handlers[kind]) return;
      handlers[kind] = (ev) => {
        if (intercept[kind]) {
          ev.preventDefault();
          ev.stopPropagation();
        }
        const isElement = ev.target instanceof Element;
        const target = isElement ? pathOf(ev.target) : null;
        const token = isElement && tagged[kind] ? tag(ev.target) : '';
        window.__captureDispatch(kind, target, ev.key || '', token);
      };
      document.addEventListener(domEvents[kind], handlers[kind], true);
    },
    unlisten(kind) {
      if (!handlers[kind]) return;
      document.removeEventListener(domEvents[kind], handlers[kind], true);
      delete handlers[kind];
    },
    untag(token) {
      const el = targets.get(token);
      if (el && el.getAttribute('data-capture-target') === token) {
        el.removeAttribute('data-capture-target');
      }
    },
    box(path, token) {
      const known = token ? targets.get(token) : null;
      const el = known && known.isConnected ? known : nodeAt(path);
      if (!el) return null;
      const r = el.getBoundingClientRect();
      return { x: r.left, y: r.top, width: r.width, height: r.height };
    },
    scroll() {
      return { x: window.scrollX, y: window.scrollY };
    },
    style(marker, css) {
      if (document.querySelector('[' + marker + ']')) return;
      const s = document.createElement('style');
      s.setAttribute(marker, '');
      s.textContent = css;
      (document.head || document.documentElement).appendChild(s);
    },
    create(handle, cls) {
      const d = document.createElement('div');
      d.className = cls;
      d.setAttribute('data-capture-overlay', handle);
      d.style.display = 'none';
      document.body.appendChild(d);
    },
    place(handle, rect) {
      const d = overlay(handle);
      if (!d) return false;
      d.style.top = rect.y + 'px';
      d.style.left = rect.x + 'px';
      d.style.width = rect.width + 'px';
      d.style.height = rect.height + 'px';
      return true;
    },
    show(handle, visible) {
      const d = overlay(handle);
      if (!d) return false;
      d.style.display = visible ? 'block' : 'none';
      return true;
    },
    pulse(handle) {
      const d = overlay(handle);
      if (!d || !d.animate) return;
      d.animate([{ opacity: 1 }, { opacity: 0.4 }, { opacity: 1 }], { duration: 400 });
    },
    remove(handle) {
      const d = overlay(handle);
      if (d) d.remove();
    },
    cursor(value) {
      document.documentElement.style.cursor = value;
    },
  };
})()`
