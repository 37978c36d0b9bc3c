// Package theme resolves CSS themes for notistackd popups. Themes are looked
// up in the user's themes directory first and then among the bundled ones;
// @import statements are inlined before the stylesheet reaches GTK.
package theme
