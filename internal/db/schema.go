package db

const identitySchemaV1 = `
CREATE TABLE IF NOT EXISTS users (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    email             TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password_hash     TEXT NOT NULL,
    avatar            TEXT,
    bio               TEXT,
    role              TEXT NOT NULL CHECK(role IN ('U', 'O', 'E', 'A')),
    verified          INTEGER NOT NULL DEFAULT 0,
    verify_token_hash TEXT,
    onboard_complete  INTEGER NOT NULL DEFAULT 0,
    parent_owner_id   TEXT,
    session_version   INTEGER NOT NULL DEFAULT 0,
    created           TEXT NOT NULL,

    FOREIGN KEY (parent_owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_users_parent ON users(parent_owner_id);

CREATE TABLE IF NOT EXISTS tags (
    id    TEXT PRIMARY KEY,
    name  TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS user_tags (
    user_id  TEXT NOT NULL,
    tag_id   TEXT NOT NULL,
    PRIMARY KEY (user_id, tag_id),
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (tag_id)  REFERENCES tags(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS system_settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

const spacesSchemaV2 = `
CREATE TABLE IF NOT EXISTS spaces (
    id           TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    cover_image  TEXT,
    is_private   INTEGER NOT NULL DEFAULT 0,
    created      TEXT NOT NULL,
    updated      TEXT,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_spaces_owner ON spaces(owner_id);

CREATE TABLE IF NOT EXISTS subscriptions (
    space_id       TEXT NOT NULL,
    user_id        TEXT NOT NULL,
    is_newsletter  INTEGER NOT NULL DEFAULT 0,
    subscribed_on  TEXT NOT NULL,
    PRIMARY KEY (space_id, user_id),
    FOREIGN KEY (space_id) REFERENCES spaces(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id)  REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);
`

const threadsSchemaV3 = `
CREATE TABLE IF NOT EXISTS threads (
    id                TEXT PRIMARY KEY,
    space_id          TEXT NOT NULL,
    owner_id          TEXT NOT NULL,
    editor_id         TEXT NOT NULL,
    title             TEXT NOT NULL,
    content           TEXT NOT NULL DEFAULT '',
    cover_image       TEXT,
    status            TEXT NOT NULL DEFAULT 'D' CHECK(status IN ('D', 'A', 'R', 'P')),
    rejection_reason  TEXT,
    created           TEXT NOT NULL,
    updated           TEXT NOT NULL,
    published         TEXT,

    FOREIGN KEY (space_id)  REFERENCES spaces(id) ON DELETE CASCADE,
    FOREIGN KEY (owner_id)  REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (editor_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_threads_space     ON threads(space_id, status);
CREATE INDEX IF NOT EXISTS idx_threads_editor    ON threads(editor_id);
CREATE INDEX IF NOT EXISTS idx_threads_owner     ON threads(owner_id, status);
CREATE INDEX IF NOT EXISTS idx_threads_published ON threads(published DESC) WHERE status = 'P';

CREATE TABLE IF NOT EXISTS thread_tags (
    thread_id  TEXT NOT NULL,
    tag_id     TEXT NOT NULL,
    PRIMARY KEY (thread_id, tag_id),
    FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE,
    FOREIGN KEY (tag_id)    REFERENCES tags(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_thread_tags_tag ON thread_tags(tag_id);

CREATE TABLE IF NOT EXISTS interactions (
    thread_id  TEXT NOT NULL,
    user_id    TEXT NOT NULL,
    created    TEXT NOT NULL,
    PRIMARY KEY (thread_id, user_id),
    FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id)   REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS comments (
    id         TEXT PRIMARY KEY,
    thread_id  TEXT NOT NULL,
    parent_id  TEXT,
    user_id    TEXT NOT NULL,
    body       TEXT NOT NULL,
    created    TEXT NOT NULL,

    FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE,
    FOREIGN KEY (parent_id) REFERENCES comments(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id)   REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_comments_thread ON comments(thread_id, created DESC) WHERE parent_id IS NULL;
CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_id, created ASC);
`

const invitesSchemaV4 = `
CREATE TABLE IF NOT EXISTS invites (
    id           TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    email        TEXT NOT NULL COLLATE NOCASE,
    token_hash   TEXT NOT NULL UNIQUE,
    is_accepted  INTEGER NOT NULL DEFAULT 0,
    user_id      TEXT,
    created      TEXT NOT NULL,
    updated      TEXT NOT NULL,

    FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id)  REFERENCES users(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_invites_owner_email ON invites(owner_id, email);
`
